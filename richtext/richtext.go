// Package richtext holds the formatted text used for post titles and bodies
// and its storable JSON form.
//
// The stored form is a chat component tree as written by earlier versions
// of the board: an object with a "text" key, optional style flags and an
// "extra" list of children. A bare JSON string or a JSON array are accepted
// on read as well.
package richtext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrMalformedRichText is returned by Deserialize for input that is not a
// component.
var ErrMalformedRichText = errors.New("malformed rich text")

// Text is one component of formatted text. Children inherit the style of
// their parent.
type Text struct {
	Text          string `json:"text"`
	Color         string `json:"color,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underlined    bool   `json:"underlined,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Extra         []Text `json:"extra,omitempty"`
}

// Plain returns an unstyled component holding s.
func Plain(s string) Text {
	return Text{Text: norm.NFC.String(s)}
}

// PlainText concatenates the text of t and all of its children.
func (t Text) PlainText() string {
	var b strings.Builder
	t.writePlain(&b)
	return b.String()
}

func (t Text) writePlain(b *strings.Builder) {
	b.WriteString(t.Text)
	for _, c := range t.Extra {
		c.writePlain(b)
	}
}

// IsEmpty reports whether t has no visible characters.
func (t Text) IsEmpty() bool {
	return strings.TrimSpace(t.PlainText()) == ""
}

// String implements fmt.Stringer with the plain text.
func (t Text) String() string {
	return t.PlainText()
}

// Serialize renders t as compact JSON.
func Serialize(t Text) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return "", fmt.Errorf("serialize rich text: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Deserialize parses the stored form of a component.
func Deserialize(s string) (Text, error) {
	t, err := decode(json.RawMessage(s))
	if err != nil {
		return Text{}, fmt.Errorf("%w: %v", ErrMalformedRichText, err)
	}
	return t, nil
}

type wireText struct {
	Text          *string           `json:"text"`
	Color         string            `json:"color"`
	Bold          bool              `json:"bold"`
	Italic        bool              `json:"italic"`
	Underlined    bool              `json:"underlined"`
	Strikethrough bool              `json:"strikethrough"`
	Extra         []json.RawMessage `json:"extra"`
}

func decode(raw json.RawMessage) (Text, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Text{}, errors.New("empty input")
	}
	if !json.Valid(raw) {
		return Text{}, errors.New("invalid JSON")
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Text{}, err
		}
		return Text{Text: s}, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Text{}, err
		}
		if len(items) == 0 {
			return Text{}, errors.New("empty component array")
		}
		parent, err := decode(items[0])
		if err != nil {
			return Text{}, err
		}
		for _, item := range items[1:] {
			child, err := decode(item)
			if err != nil {
				return Text{}, err
			}
			parent.Extra = append(parent.Extra, child)
		}
		return parent, nil

	case '{':
		var w wireText
		if err := json.Unmarshal(raw, &w); err != nil {
			return Text{}, err
		}
		if w.Text == nil {
			return Text{}, errors.New(`component has no "text" key`)
		}
		t := Text{
			Text:          *w.Text,
			Color:         w.Color,
			Bold:          w.Bold,
			Italic:        w.Italic,
			Underlined:    w.Underlined,
			Strikethrough: w.Strikethrough,
		}
		for _, item := range w.Extra {
			child, err := decode(item)
			if err != nil {
				return Text{}, err
			}
			t.Extra = append(t.Extra, child)
		}
		return t, nil
	}

	return Text{}, fmt.Errorf("unexpected JSON value starting with %q", raw[0])
}
