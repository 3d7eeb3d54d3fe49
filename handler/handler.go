// Package handler exposes the post operations the board's command surface
// calls: creating, listing and moving posts on behalf of a user, drafts
// kept between interactions, paging, and the legacy migration.
package handler

import (
	"context"
	"errors"
	"time"

	"bulletinboard/domain"
	"bulletinboard/legacy"
	"bulletinboard/logging"

	"github.com/google/uuid"
)

// ErrForbidden is returned when a user acts on a post written by someone
// else.
var ErrForbidden = errors.New("forbidden")

// PostStore is the persistence the handler needs; *store.Store has it.
type PostStore interface {
	InsertPost(ctx context.Context, p domain.Post, preserveOriginalID bool) error
	DeletePost(ctx context.Context, id string) error
	RestorePost(ctx context.Context, id string) error
	PurgePost(ctx context.Context, id string) error
	GetAllPosts(ctx context.Context) ([]domain.Post, error)
	GetPostsByAuthor(ctx context.Context, author uuid.UUID) ([]domain.Post, error)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	GetDeletedPostsByAuthor(ctx context.Context, author uuid.UUID) ([]domain.Post, error)
	GetDeletedPost(ctx context.Context, id string) (*domain.Post, error)
}

type Handler struct {
	Store    PostStore
	Importer *legacy.Importer
	Sessions *SessionStore
	Log      logging.Logger

	// Now stamps new posts; nil means time.Now.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) log() logging.Logger {
	if h.Log == nil {
		return logging.Discard()
	}
	return h.Log
}
