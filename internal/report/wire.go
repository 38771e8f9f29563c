package report

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Blocks are tagged on the wire by a "type" field. Encoding adds the tag,
// decoding dispatches on it; unknown tags become *Unknown.

type typeTag struct {
	Type string `json:"type" yaml:"type"`
}

func newBlock(kind string) Block {
	switch Kind(kind) {
	case KindTable:
		return &Table{}
	case KindStats:
		return &Stats{}
	case KindTrends:
		return &Trends{}
	case KindCards:
		return &Cards{}
	case KindNote:
		return &Note{}
	case KindDiagram:
		return &Diagram{}
	}
	return &Unknown{Type: kind}
}

// UnmarshalJSON decodes a section and its tagged blocks.
func (s *Section) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title   string            `json:"title"`
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Title = raw.Title
	s.Content = make([]Block, 0, len(raw.Content))
	for i, msg := range raw.Content {
		var tag typeTag
		if err := json.Unmarshal(msg, &tag); err != nil {
			return fmt.Errorf("section %q block %d: %w", raw.Title, i, err)
		}
		b := newBlock(tag.Type)
		if _, unknown := b.(*Unknown); !unknown {
			if err := json.Unmarshal(msg, b); err != nil {
				return fmt.Errorf("section %q block %d (%s): %w", raw.Title, i, tag.Type, err)
			}
		}
		s.Content = append(s.Content, b)
	}
	return nil
}

// UnmarshalYAML decodes a section from YAML using the same schema as JSON.
func (s *Section) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Title   string      `yaml:"title"`
		Content []yaml.Node `yaml:"content"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	s.Title = raw.Title
	s.Content = make([]Block, 0, len(raw.Content))
	for i := range raw.Content {
		node := &raw.Content[i]
		var tag typeTag
		if err := node.Decode(&tag); err != nil {
			return fmt.Errorf("section %q block %d: %w", raw.Title, i, err)
		}
		b := newBlock(tag.Type)
		if _, unknown := b.(*Unknown); !unknown {
			if err := node.Decode(b); err != nil {
				return fmt.Errorf("section %q block %d (%s): %w", raw.Title, i, tag.Type, err)
			}
		}
		s.Content = append(s.Content, b)
	}
	return nil
}

// Each MarshalJSON embeds a method-less alias so the block's fields are
// promoted next to the type tag.

func (t *Table) MarshalJSON() ([]byte, error) {
	type alias Table
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindTable, (*alias)(t)})
}

func (s *Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindStats, (*alias)(s)})
}

func (t *Trends) MarshalJSON() ([]byte, error) {
	type alias Trends
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindTrends, (*alias)(t)})
}

func (c *Cards) MarshalJSON() ([]byte, error) {
	type alias Cards
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindCards, (*alias)(c)})
}

func (n *Note) MarshalJSON() ([]byte, error) {
	type alias Note
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindNote, (*alias)(n)})
}

func (d *Diagram) MarshalJSON() ([]byte, error) {
	type alias Diagram
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindDiagram, (*alias)(d)})
}

// MarshalJSON writes the original tag back out so unknown blocks survive a
// round trip by type name.
func (u *Unknown) MarshalJSON() ([]byte, error) {
	return json.Marshal(typeTag{Type: u.Type})
}
