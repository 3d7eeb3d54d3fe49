package domain

import (
	"time"

	"bulletinboard/richtext"

	"github.com/google/uuid"
)

// Post is a short text message written by a user.
//
// StoredID is the text the row is keyed by in the database: the short form
// for posts created here, the original canonical text for imported posts.
// It is filled on every read and only consulted on write when the original
// identifier is preserved.
type Post struct {
	ID       uuid.UUID
	StoredID string
	Author   uuid.UUID
	Title    richtext.Text
	Content  richtext.Text
	Date     time.Time
}
