// Package legacy imports the JSON document written by the first version of
// the board into the database. The import runs once; a flag in the config
// table records that it happened.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"bulletinboard/domain"
	"bulletinboard/richtext"
	"bulletinboard/shortid"
	"bulletinboard/temporal"

	"github.com/google/uuid"
)

// Document is the legacy JSON file. Unknown keys are ignored.
type Document struct {
	Posts        []Record            `json:"posts"`
	DeletedPosts []Record            `json:"deletedPosts"`
	Permissions  []domain.Permission `json:"permissions"`
}

// Empty reports whether d holds nothing to import.
func (d *Document) Empty() bool {
	return len(d.Posts) == 0 && len(d.DeletedPosts) == 0 && len(d.Permissions) == 0
}

// Record is one post of the legacy document. Title and content are either
// a JSON string holding serialized rich text, or the component inline.
type Record struct {
	ID      string          `json:"id" validate:"required,min=22,max=36"`
	Author  string          `json:"author" validate:"required,len=36"`
	Title   json.RawMessage `json:"title" validate:"required"`
	Content json.RawMessage `json:"content" validate:"required"`
	Date    string          `json:"date" validate:"required"`
}

// Load reads the document at path. A missing or empty file yields an
// empty document.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open legacy document: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a document from r.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read legacy document: %w", err)
	}
	doc := &Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse legacy document: %w", err)
	}
	return doc, nil
}

// Post converts r. StoredID keeps the id text of the document so the row
// is stored under the same key. Timestamps without offset are read in loc.
func (r Record) Post(loc *time.Location) (domain.Post, error) {
	id, err := shortid.Parse(r.ID)
	if err != nil {
		return domain.Post{}, err
	}
	author, err := uuid.Parse(r.Author)
	if err != nil {
		return domain.Post{}, fmt.Errorf("%w: author %q: %v", shortid.ErrMalformedIdentifier, r.Author, err)
	}
	title, err := decodeText(r.Title)
	if err != nil {
		return domain.Post{}, fmt.Errorf("title: %w", err)
	}
	content, err := decodeText(r.Content)
	if err != nil {
		return domain.Post{}, fmt.Errorf("content: %w", err)
	}
	date, err := temporal.ParseIn(r.Date, loc)
	if err != nil {
		return domain.Post{}, err
	}

	return domain.Post{
		ID:       id,
		StoredID: r.ID,
		Author:   author,
		Title:    title,
		Content:  content,
		Date:     date,
	}, nil
}

// decodeText accepts an inline component, or a JSON string that is either
// a serialized component or plain text.
func decodeText(raw json.RawMessage) (richtext.Text, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return richtext.Deserialize(string(raw))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return richtext.Text{}, fmt.Errorf("%w: %v", richtext.ErrMalformedRichText, err)
	}
	if t, err := richtext.Deserialize(s); err == nil {
		return t, nil
	}
	return richtext.Plain(s), nil
}
