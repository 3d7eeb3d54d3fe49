package store

import (
	"fmt"
	"time"

	"bulletinboard/domain"
	"bulletinboard/richtext"
	"bulletinboard/shortid"
	"bulletinboard/temporal"

	"github.com/google/uuid"
)

// postRow is the stored shape shared by posts and deletedPosts.
type postRow struct {
	ID      string `db:"id"`
	Author  string `db:"author"`
	Title   string `db:"title"`
	Content string `db:"content"`
	Date    string `db:"date"`
}

// decodeRow turns a stored row into a Post. Errors wrap
// shortid.ErrMalformedIdentifier, richtext.ErrMalformedRichText or
// temporal.ErrUnparseableTimestamp.
func decodeRow(r postRow, loc *time.Location) (domain.Post, error) {
	var (
		p   domain.Post
		err error
	)

	p.StoredID = r.ID
	if shortid.IsCanonical(r.ID) {
		p.ID, err = uuid.Parse(r.ID)
	} else {
		p.ID, err = shortid.Decode(r.ID)
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("column id: %w", err)
	}

	if p.Author, err = uuid.Parse(r.Author); err != nil {
		return domain.Post{}, fmt.Errorf("column author: %w: %v", shortid.ErrMalformedIdentifier, err)
	}
	if p.Title, err = richtext.Deserialize(r.Title); err != nil {
		return domain.Post{}, fmt.Errorf("column title: %w", err)
	}
	if p.Content, err = richtext.Deserialize(r.Content); err != nil {
		return domain.Post{}, fmt.Errorf("column content: %w", err)
	}
	if p.Date, err = temporal.ParseIn(r.Date, loc); err != nil {
		return domain.Post{}, fmt.Errorf("column date: %w", err)
	}
	return p, nil
}

func encodeRow(p domain.Post, storedID string) (postRow, error) {
	title, err := richtext.Serialize(p.Title)
	if err != nil {
		return postRow{}, err
	}
	content, err := richtext.Serialize(p.Content)
	if err != nil {
		return postRow{}, err
	}
	return postRow{
		ID:      storedID,
		Author:  p.Author.String(),
		Title:   title,
		Content: content,
		Date:    temporal.Format(p.Date),
	}, nil
}

// storageID picks the text a new row is keyed by. Organic posts use the
// short form. Preserved posts keep StoredID when it spells ID canonically.
func storageID(p domain.Post, preserveOriginalID bool) string {
	if !preserveOriginalID {
		return shortid.Encode(p.ID)
	}
	if shortid.IsCanonical(p.StoredID) {
		if id, err := uuid.Parse(p.StoredID); err == nil && id == p.ID {
			return p.StoredID
		}
	}
	return p.ID.String()
}

func validatePost(p domain.Post) error {
	switch {
	case p.ID == uuid.Nil:
		return fmt.Errorf("%w: nil id", ErrInvalidPost)
	case p.Author == uuid.Nil:
		return fmt.Errorf("%w: nil author", ErrInvalidPost)
	case p.Title.IsEmpty():
		return fmt.Errorf("%w: empty title", ErrInvalidPost)
	case p.Content.IsEmpty():
		return fmt.Errorf("%w: empty content", ErrInvalidPost)
	}
	return nil
}
