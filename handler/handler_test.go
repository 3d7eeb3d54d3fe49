package handler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bulletinboard/domain"
	"bulletinboard/legacy"
	"bulletinboard/logging"
	"bulletinboard/richtext"
	"bulletinboard/shortid"
	"bulletinboard/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = uuid.MustParse("0b8d6a52-7d3c-4f7e-9a1b-2c3d4e5f6a7b")
	bob   = uuid.MustParse("9f8e7d6c-5b4a-4321-8fed-cba987654321")
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "database.db"), store.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2024, 6, 1, 9, 30, 15, 987654321, time.UTC)
	return &Handler{
		Store:    s,
		Importer: legacy.NewImporter(s, logging.Discard(), time.UTC),
		Sessions: NewSessionStore(),
		Log:      logging.Discard(),
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	}
}

func TestCreateAndGetPost(t *testing.T) {
	ctx := context.Background()
	h := newHandler(t)

	p, err := h.CreatePost(ctx, alice, richtext.Plain("Hello"), richtext.FromMarkdown("**bold** move"))
	require.NoError(t, err)
	assert.Equal(t, shortid.Encode(p.ID), p.StoredID)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 31, 15, 0, time.UTC), p.Date)

	got, err := h.GetPost(ctx, p.StoredID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.Content, got.Content)
	assert.True(t, p.Date.Equal(got.Date))

	dto := NewPostDTO(*got)
	assert.Equal(t, p.StoredID, dto.ID)
	assert.Equal(t, "Hello", dto.Title)
	assert.Equal(t, "bold move", dto.Content)
	assert.Contains(t, string(dto.ContentHTML), "<strong>bold</strong>")
}

func TestImportedPostKeepsItsID(t *testing.T) {
	ctx := context.Background()
	h := newHandler(t)

	const legacyID = "11111111-1111-1111-1111-111111111111"
	doc, err := legacy.Decode(strings.NewReader(`{"posts":[{"id":"` + legacyID + `","author":"` + alice.String() + `",
		"title":"Old","content":"from the plugin","date":"2023:07:04_10:15:30"}]}`))
	require.NoError(t, err)
	_, err = h.Importer.Run(ctx, doc)
	require.NoError(t, err)

	posts, err := h.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	dto := NewPostDTO(posts[0])
	assert.Equal(t, legacyID, dto.ID)
	assert.Equal(t, "Old", dto.Title)

	got, err := h.GetPost(ctx, dto.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, shortid.Encode(posts[0].ID), NewPostDTO(domain.Post{ID: posts[0].ID}).ID)
}

func TestCreatePostRejectsEmptyText(t *testing.T) {
	h := newHandler(t)
	_, err := h.CreatePost(context.Background(), alice, richtext.Plain(""), richtext.Plain("x"))
	assert.ErrorIs(t, err, store.ErrInvalidPost)
}

func TestLifecycleChecksAuthor(t *testing.T) {
	ctx := context.Background()
	h := newHandler(t)

	p, err := h.CreatePost(ctx, alice, richtext.Plain("mine"), richtext.Plain("all mine"))
	require.NoError(t, err)

	err = h.DeletePost(ctx, bob, p.StoredID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, h.DeletePost(ctx, alice, p.ID.String()))

	deleted, err := h.ListDeletedPosts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	err = h.RestorePost(ctx, bob, p.StoredID)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, h.RestorePost(ctx, alice, p.StoredID))

	err = h.PurgePost(ctx, alice, p.StoredID)
	assert.ErrorIs(t, err, store.ErrPostNotFound)

	require.NoError(t, h.DeletePost(ctx, alice, p.StoredID))
	err = h.PurgePost(ctx, bob, p.StoredID)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, h.PurgePost(ctx, alice, p.StoredID))

	got, err := h.GetDeletedPost(ctx, p.StoredID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = h.DeletePost(ctx, alice, p.StoredID)
	assert.ErrorIs(t, err, store.ErrPostNotFound)
}

func TestListPostsByAuthor(t *testing.T) {
	ctx := context.Background()
	h := newHandler(t)

	for i, author := range []uuid.UUID{alice, bob, alice} {
		_, err := h.CreatePost(ctx, author, richtext.Plain("title"), richtext.Plain(string(rune('a'+i))))
		require.NoError(t, err)
	}

	all, err := h.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := h.ListPostsByAuthor(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a", mine[0].Content.PlainText())
	assert.Equal(t, "c", mine[1].Content.PlainText())
}

func TestSubmitDraft(t *testing.T) {
	ctx := context.Background()
	h := newHandler(t)

	_, err := h.SubmitDraft(ctx, alice)
	assert.ErrorIs(t, err, ErrIncompleteDraft)

	h.Sessions.Update(alice, func(d *Draft) { d.Title = richtext.Plain("Draft title") })
	_, err = h.SubmitDraft(ctx, alice)
	assert.ErrorIs(t, err, ErrIncompleteDraft)

	d := h.Sessions.Update(alice, func(d *Draft) { d.Content = richtext.Plain("Draft body") })
	assert.Equal(t, "Draft title", d.Title.PlainText())

	p, err := h.SubmitDraft(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, alice, p.Author)

	_, ok := h.Sessions.Get(alice)
	assert.False(t, ok)

	posts, err := h.ListPostsByAuthor(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestSessionStoreIsolatesUsers(t *testing.T) {
	s := NewSessionStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Update(alice, func(d *Draft) { d.Title = richtext.Plain("alice") })
		}()
		go func() {
			defer wg.Done()
			s.Update(bob, func(d *Draft) { d.Title = richtext.Plain("bob") })
		}()
	}
	wg.Wait()

	a, ok := s.Get(alice)
	require.True(t, ok)
	assert.Equal(t, "alice", a.Title.PlainText())
	b, ok := s.Get(bob)
	require.True(t, ok)
	assert.Equal(t, "bob", b.Title.PlainText())

	s.Clear(alice)
	_, ok = s.Get(alice)
	assert.False(t, ok)
	_, ok = s.Get(bob)
	assert.True(t, ok)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	h := newHandler(t)

	done, err := h.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	rep, err := h.Migrate(ctx, filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.False(t, rep.Skipped)

	done, err = h.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	rep, err = h.Migrate(ctx, "ignored.json")
	require.NoError(t, err)
	assert.True(t, rep.Skipped)

	_, err = (&Handler{}).MigrationStatus(ctx)
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	posts := make([]domain.Post, 10)
	for i := range posts {
		posts[i].Title = richtext.Plain(string(rune('a' + i)))
	}

	tests := []struct {
		name      string
		page      int
		perPage   int
		wantPage  int
		wantItems int
		wantPrev  bool
		wantNext  bool
	}{
		{"first", 0, 0, 0, 4, false, true},
		{"middle", 1, 4, 1, 4, true, true},
		{"last partial", 2, 4, 2, 2, true, false},
		{"past the end", 9, 4, 2, 2, true, false},
		{"negative", -3, 4, 0, 4, false, true},
		{"one page", 0, 20, 0, 10, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Paginate(posts, tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, r.Page)
			assert.Len(t, r.Items, tt.wantItems)
			assert.Equal(t, tt.wantPrev, r.HasPrev)
			assert.Equal(t, tt.wantNext, r.HasNext)
		})
	}

	empty := Paginate(nil, 3, 4)
	assert.Empty(t, empty.Items)
	assert.Zero(t, empty.TotalPages)
	assert.False(t, empty.HasNext)
}
