package handler

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"bulletinboard/domain"
	"bulletinboard/richtext"
	"bulletinboard/shortid"
	"bulletinboard/store"

	"github.com/google/uuid"
)

// CreatePost stores a new post by author, stamped with the current second.
func (h *Handler) CreatePost(ctx context.Context, author uuid.UUID, title, content richtext.Text) (domain.Post, error) {
	p := domain.Post{
		ID:      uuid.New(),
		Author:  author,
		Title:   title,
		Content: content,
		Date:    h.now().UTC().Truncate(time.Second),
	}
	if err := h.Store.InsertPost(ctx, p, false); err != nil {
		return domain.Post{}, err
	}
	p.StoredID = shortid.Encode(p.ID)

	h.log().Info(ctx, "post created", "id", p.StoredID, "author", author.String())
	return p, nil
}

func (h *Handler) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return h.Store.GetAllPosts(ctx)
}

func (h *Handler) ListPostsByAuthor(ctx context.Context, author uuid.UUID) ([]domain.Post, error) {
	return h.Store.GetPostsByAuthor(ctx, author)
}

func (h *Handler) ListDeletedPosts(ctx context.Context, author uuid.UUID) ([]domain.Post, error) {
	return h.Store.GetDeletedPostsByAuthor(ctx, author)
}

// GetPost returns nil when no active post has the id.
func (h *Handler) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return h.Store.GetPost(ctx, id)
}

func (h *Handler) GetDeletedPost(ctx context.Context, id string) (*domain.Post, error) {
	return h.Store.GetDeletedPost(ctx, id)
}

// DeletePost soft-deletes the post when requester wrote it.
func (h *Handler) DeletePost(ctx context.Context, requester uuid.UUID, id string) error {
	p, err := h.owned(ctx, h.Store.GetPost, requester, id)
	if err != nil {
		return err
	}
	return h.Store.DeletePost(ctx, p.StoredID)
}

// RestorePost brings back a deleted post when requester wrote it.
func (h *Handler) RestorePost(ctx context.Context, requester uuid.UUID, id string) error {
	p, err := h.owned(ctx, h.Store.GetDeletedPost, requester, id)
	if err != nil {
		return err
	}
	return h.Store.RestorePost(ctx, p.StoredID)
}

// PurgePost permanently removes a deleted post when requester wrote it.
func (h *Handler) PurgePost(ctx context.Context, requester uuid.UUID, id string) error {
	p, err := h.owned(ctx, h.Store.GetDeletedPost, requester, id)
	if err != nil {
		return err
	}
	return h.Store.PurgePost(ctx, p.StoredID)
}

type lookup func(ctx context.Context, id string) (*domain.Post, error)

func (h *Handler) owned(ctx context.Context, get lookup, requester uuid.UUID, id string) (*domain.Post, error) {
	p, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrPostNotFound, id)
	}
	if p.Author != requester {
		h.log().Warn(ctx, "refused action on another user's post", "id", p.StoredID, "requester", requester.String())
		return nil, fmt.Errorf("%w: post %s belongs to another user", ErrForbidden, p.StoredID)
	}
	return p, nil
}

// PostDTO is a post prepared for display.
type PostDTO struct {
	ID          string        `json:"id"`
	Author      string        `json:"author"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	ContentHTML template.HTML `json:"content_html"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewPostDTO exposes the id the post is stored under, so imported posts
// keep the identifier their author already knows.
func NewPostDTO(p domain.Post) PostDTO {
	id := p.StoredID
	if id == "" {
		id = shortid.Encode(p.ID)
	}
	return PostDTO{
		ID:          id,
		Author:      p.Author.String(),
		Title:       p.Title.PlainText(),
		Content:     p.Content.PlainText(),
		ContentHTML: template.HTML(p.Content.HTML()),
		CreatedAt:   p.Date,
	}
}
