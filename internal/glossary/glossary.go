// Package glossary tokenizes inline ⟦term⟧ markers. It does not resolve
// definitions; callers look terms up in report.Glossary.
package glossary

import "strings"

const (
	markerOpen  = "⟦"
	markerClose = "⟧"
)

// TokenKind distinguishes literal text from a marked term.
type TokenKind int

const (
	Literal TokenKind = iota
	Term
)

// Token is a run of text. For Term tokens Text is the inner term without
// delimiters.
type Token struct {
	Kind TokenKind
	Text string
}

// Source returns the token as it appeared in the input.
func (t Token) Source() string {
	if t.Kind == Term {
		return markerOpen + t.Text + markerClose
	}
	return t.Text
}

// Tokenize splits text into literal runs and term markers. A marker needs at
// least one rune between the delimiters; an unclosed or empty marker stays
// literal. Adjacent literal runs are merged.
func Tokenize(text string) []Token {
	var tokens []Token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, Token{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}

	rest := text
	for rest != "" {
		i := strings.Index(rest, markerOpen)
		if i < 0 {
			lit.WriteString(rest)
			break
		}
		lit.WriteString(rest[:i])
		after := rest[i+len(markerOpen):]

		j := strings.Index(after, markerClose)
		// The inner term must not itself contain an opening delimiter; in
		// that case the first ⟦ is literal and scanning resumes at the next.
		if j <= 0 || strings.Contains(after[:j], markerOpen) {
			lit.WriteString(markerOpen)
			rest = after
			continue
		}

		flush()
		tokens = append(tokens, Token{Kind: Term, Text: after[:j]})
		rest = after[j+len(markerClose):]
	}
	flush()
	return tokens
}

// Plain returns text with every marker replaced by its inner term.
func Plain(text string) string {
	if !strings.Contains(text, markerOpen) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, tok := range Tokenize(text) {
		b.WriteString(tok.Text)
	}
	return b.String()
}

// Terms returns the marked terms in order of appearance, with repeats.
func Terms(text string) []string {
	var terms []string
	for _, tok := range Tokenize(text) {
		if tok.Kind == Term {
			terms = append(terms, tok.Text)
		}
	}
	return terms
}
