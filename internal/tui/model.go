// Package tui is an interactive terminal browser for a report: a dashboard,
// one page per chapter, and a debounced search view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/prism/internal/layout"
	"github.com/dgallion1/prism/internal/report"
	"github.com/dgallion1/prism/internal/search"
	"github.com/dgallion1/prism/internal/session"
)

// Page identifies what the browser is showing.
type Page int

const (
	PageDashboard Page = iota
	PageChapter
	PageSearch
)

// commitMsg arrives when the session commits a debounced query.
type commitMsg struct {
	state session.State
}

// Options configures the browser.
type Options struct {
	// PreviewRows limits table rows until tables are expanded with "e".
	PreviewRows int
	// GroupPreview limits the hits shown per chapter in search.
	GroupPreview int
}

// Model is the bubbletea model for the report browser.
type Model struct {
	doc    *report.Document
	sess   *session.Session
	opts   Options
	styles Styles

	input    textinput.Model
	viewport viewport.Model

	page     Page
	back     Page
	chapter  int
	level    layout.Level
	expanded bool
}

// NewModel builds a browser over doc driven by sess. The caller owns the
// session's OnCommit hook and should forward commits with CommitMsg.
func NewModel(doc *report.Document, sess *session.Session, opts Options) Model {
	in := textinput.New()
	in.Placeholder = "搜索…"
	in.Prompt = "⌕ "
	in.CharLimit = 200

	m := Model{
		doc:      doc,
		sess:     sess,
		opts:     opts,
		styles:   DefaultStyles(),
		input:    in,
		viewport: viewport.New(80, 20),
		level:    layout.Deep,
	}
	m.refresh()
	return m
}

// CommitMsg wraps a session state for delivery through tea.Program.Send.
func CommitMsg(st session.State) tea.Msg {
	return commitMsg{state: st}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-m.chromeHeight(), 1)
		m.input.Width = max(msg.Width-8, 10)
		m.refresh()
		return m, nil

	case commitMsg:
		if m.page == PageSearch {
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "ctrl+k":
		return m.openSearch()
	}

	if m.input.Focused() {
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "tab":
		if m.page == PageSearch {
			m.sess.SetFilter(m.sess.State().Filter.Next())
			m.refresh()
		}
		return m, nil
	case "esc":
		switch m.page {
		case PageSearch:
			m.clearSearch()
		case PageChapter:
			m.page = PageDashboard
			m.refresh()
		}
		return m, nil
	case "/":
		return m.openSearch()
	case "[":
		m.moveChapter(-1)
		return m, nil
	case "]":
		m.moveChapter(1)
		return m, nil
	case "d":
		if m.level == layout.Core {
			m.level = layout.Deep
		} else {
			m.level = layout.Core
		}
		m.refresh()
		return m, nil
	case "e":
		m.expanded = !m.expanded
		m.refresh()
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(msg.Runes[0] - '1')
		if n < len(m.doc.Chapters) {
			m.openChapter(n)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.clearSearch()
		return m, nil
	case "tab":
		m.sess.SetFilter(m.sess.State().Filter.Next())
		m.refresh()
		return m, nil
	case "enter":
		m.sess.Flush()
		m.input.Blur()
		m.refresh()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.sess.SetQuery(v)
		m.refresh()
	}
	return m, cmd
}

func (m Model) openSearch() (tea.Model, tea.Cmd) {
	if m.page != PageSearch {
		m.back = m.page
	}
	m.page = PageSearch
	m.refresh()
	cmd := m.input.Focus()
	return m, cmd
}

func (m *Model) clearSearch() {
	m.sess.Clear()
	m.input.SetValue("")
	m.input.Blur()
	m.page = m.back
	m.refresh()
}

func (m *Model) openChapter(i int) {
	m.page = PageChapter
	m.chapter = i
	m.refresh()
	m.viewport.GotoTop()
}

// moveChapter steps through chapters, opening the first or last one from
// the dashboard.
func (m *Model) moveChapter(delta int) {
	if len(m.doc.Chapters) == 0 {
		return
	}
	if m.page != PageChapter {
		if delta > 0 {
			m.openChapter(0)
		} else {
			m.openChapter(len(m.doc.Chapters) - 1)
		}
		return
	}
	next := m.chapter + delta
	if next < 0 || next >= len(m.doc.Chapters) {
		return
	}
	m.openChapter(next)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.sess.Close()
	return m, tea.Quit
}

// refresh repaints the viewport for the current page.
func (m *Model) refresh() {
	p := &painter{styles: m.styles, glossary: m.doc.Glossary, level: m.level}
	if !m.expanded {
		p.preview = m.opts.PreviewRows
	}

	var content string
	switch m.page {
	case PageChapter:
		content = p.chapter(&m.doc.Chapters[m.chapter], m.chapter)
	case PageSearch:
		st, groups := m.sess.Snapshot()
		p.query = st.Committed
		switch {
		case !st.Searching:
			content = m.styles.Muted.Render("输入关键词开始搜索")
		default:
			if len(groups) == 0 {
				content = m.styles.Muted.Render(fmt.Sprintf("没有找到与 %q 相关的内容", st.Committed))
			} else {
				content = p.results(groups, m.opts.GroupPreview)
			}
		}
	default:
		content = p.dashboard(m.doc)
	}
	m.viewport.SetContent(content)
}

func (m Model) chromeHeight() int {
	return lipgloss.Height(m.header()) + lipgloss.Height(m.footer())
}

func (m Model) header() string {
	switch m.page {
	case PageSearch:
		st, groups := m.sess.Snapshot()
		status := fmt.Sprintf("[%s]", st.Filter)
		if st.Phase == session.Typing {
			status += " …"
		} else if st.Searching {
			status += fmt.Sprintf(" %d 条结果", search.Count(groups))
		}
		return m.styles.Input.Render(m.input.View()) + " " + m.styles.Status.Render(status)
	case PageChapter:
		ch := m.doc.Chapters[m.chapter]
		return m.styles.Title.Render(m.doc.Title) + m.styles.Muted.Render(fmt.Sprintf("  %d/%d  %s", m.chapter+1, len(m.doc.Chapters), ch.Title))
	}
	return m.styles.Title.Render(m.doc.Title)
}

func (m Model) footer() string {
	keys := []string{"ctrl+k 搜索", "[/] 章节", "d 详略", "e 展开", "q 退出"}
	if m.page == PageSearch {
		keys = []string{"tab 类型", "enter 确认", "esc 清除", "q 退出"}
	}
	level := "全部"
	if m.level == layout.Core {
		level = "核心"
	}
	return m.styles.Status.Render(strings.Join(keys, " · ") + "  ·  " + level)
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), m.viewport.View(), m.footer())
}

// Page returns the page being shown.
func (m Model) Page() Page { return m.page }

// Run starts the browser on the terminal and blocks until the reader quits
// or ctx is cancelled.
func Run(ctx context.Context, doc *report.Document, sessOpts session.Options, opts Options, log *slog.Logger) error {
	var program *tea.Program
	ready := make(chan struct{})
	// Send blocks until the event loop takes the message, and the loop may be
	// inside Update closing the session, so commits are forwarded from their
	// own goroutine.
	sessOpts.OnCommit = func(st session.State) {
		go func() {
			<-ready
			program.Send(CommitMsg(st))
		}()
	}
	sess := session.New(doc, sessOpts)
	defer sess.Close()

	program = tea.NewProgram(NewModel(doc, sess, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	close(ready)

	log.Debug("browser started", "chapters", len(doc.Chapters))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
