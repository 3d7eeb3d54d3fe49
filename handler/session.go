package handler

import (
	"context"
	"errors"
	"sync"

	"bulletinboard/domain"
	"bulletinboard/richtext"

	"github.com/google/uuid"
)

// ErrIncompleteDraft is returned by SubmitDraft when the title or content
// is still empty.
var ErrIncompleteDraft = errors.New("draft needs a title and content")

// Draft is the post a user is composing.
type Draft struct {
	Title   richtext.Text
	Content richtext.Text
}

func (d Draft) complete() bool {
	return !d.Title.IsEmpty() && !d.Content.IsEmpty()
}

// SessionStore keeps one draft per user. Entries live until Clear.
type SessionStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]Draft
}

func NewSessionStore() *SessionStore {
	return &SessionStore{drafts: make(map[uuid.UUID]Draft)}
}

func (s *SessionStore) Get(user uuid.UUID) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[user]
	return d, ok
}

// Update applies fn to the user's draft, creating it if needed, and returns
// the result.
func (s *SessionStore) Update(user uuid.UUID, fn func(d *Draft)) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.drafts[user]
	fn(&d)
	s.drafts[user] = d
	return d
}

func (s *SessionStore) Clear(user uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, user)
}

// SubmitDraft posts the user's draft and forgets it. The draft is kept
// when the insert fails.
func (h *Handler) SubmitDraft(ctx context.Context, user uuid.UUID) (domain.Post, error) {
	d, ok := h.Sessions.Get(user)
	if !ok || !d.complete() {
		return domain.Post{}, ErrIncompleteDraft
	}
	p, err := h.CreatePost(ctx, user, d.Title, d.Content)
	if err != nil {
		return domain.Post{}, err
	}
	h.Sessions.Clear(user)
	return p, nil
}
