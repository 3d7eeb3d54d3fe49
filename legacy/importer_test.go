package legacy

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bulletinboard/domain"
	"bulletinboard/logging"
	"bulletinboard/richtext"
	"bulletinboard/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "testdata/legacy.json"

var author = uuid.MustParse("6f1c2a3b-4d5e-4f60-8a7b-9c0d1e2f3a4b")

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "database.db"), store.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunImportsOnce(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	im := NewImporter(s, logging.Discard(), time.UTC)

	doc, err := Load(fixture)
	require.NoError(t, err)

	rep, err := im.Run(ctx, doc)
	require.NoError(t, err)
	assert.False(t, rep.Skipped)
	assert.Equal(t, 1, rep.Imported)
	assert.Equal(t, 1, rep.ImportedDeleted)
	assert.Equal(t, 1, rep.Permissions)
	require.Len(t, rep.Invalid, 1)
	assert.Equal(t, "bad", rep.Invalid[0].ID)
	assert.Empty(t, rep.Existing)

	done, err := im.IsMigrated(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	p, err := s.GetPost(ctx, "11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", p.StoredID)
	assert.Equal(t, author, p.Author)
	assert.Equal(t, richtext.Text{Text: "Welcome", Color: "gold"}, p.Title)
	assert.Equal(t, richtext.Text{Text: "First post", Bold: true}, p.Content)
	assert.Equal(t, time.Date(2023, 7, 4, 10, 15, 30, 0, time.UTC), p.Date)

	d, err := s.GetDeletedPost(ctx, "22222222-2222-2222-2222-222222222222")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Old news", d.Title.PlainText())
	assert.Equal(t, "plain words", d.Content.PlainText())

	again, err := im.Run(ctx, doc)
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	posts, err := s.GetAllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestRunSkipsExistingPosts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.InsertPost(ctx, domain.Post{
		ID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Author:  author,
		Title:   richtext.Plain("already here"),
		Content: richtext.Plain("kept"),
		Date:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, false))

	rep, err := NewImporter(s, nil, time.UTC).RunFile(ctx, fixture)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Imported)
	assert.Equal(t, 1, rep.ImportedDeleted)
	assert.Equal(t, []string{"11111111-1111-1111-1111-111111111111"}, rep.Existing)

	p, err := s.GetPost(ctx, "11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "already here", p.Title.PlainText())
}

func TestRunFileMissingDocument(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	im := NewImporter(s, nil, time.UTC)

	rep, err := im.RunFile(ctx, filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.False(t, rep.Skipped)
	assert.Zero(t, rep.Imported)

	done, err := im.IsMigrated(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	rep, err = im.RunFile(ctx, fixture)
	require.NoError(t, err)
	assert.True(t, rep.Skipped)
}

func TestRunRollsBackOnStoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := store.New(sqlx.NewDb(db, "sqlmock"))
	t.Cleanup(func() { _ = s.Close() })

	doc, err := Decode(strings.NewReader(`{"posts":[{
		"id":"11111111-1111-1111-1111-111111111111",
		"author":"6f1c2a3b-4d5e-4f60-8a7b-9c0d1e2f3a4b",
		"title":"hi","content":"there","date":"2023-07-01T08:00:00Z"}]}`))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT value FROM config`).WillReturnRows(sqlmock.NewRows([]string{"value"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT value FROM config`).WillReturnRows(sqlmock.NewRows([]string{"value"}))
	mock.ExpectQuery(`FROM posts WHERE id IN`).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	rep, err := NewImporter(s, nil, time.UTC).Run(context.Background(), doc)
	assert.ErrorIs(t, err, store.ErrStoreRead)
	assert.Zero(t, rep.Imported)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.True(t, doc.Empty())

	_, err = Decode(strings.NewReader(`{"posts": [`))
	assert.Error(t, err)

	doc, err = Decode(strings.NewReader(`{"unknown": 1, "permissions": [{}]}`))
	require.NoError(t, err)
	assert.False(t, doc.Empty())
	assert.Len(t, doc.Permissions, 1)
}

func TestRecordPost(t *testing.T) {
	r := Record{
		ID:      "11111111-1111-1111-1111-111111111111",
		Author:  author.String(),
		Title:   []byte(`"[{\"text\":\"a\"},{\"text\":\"b\",\"italic\":true}]"`),
		Content: []byte(`[{"text":"c"}]`),
		Date:    "2023-07-04T19:15:30+09:00[Asia/Tokyo]",
	}
	p, err := r.Post(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, r.ID, p.StoredID)
	assert.Equal(t, richtext.Text{Text: "a", Extra: []richtext.Text{{Text: "b", Italic: true}}}, p.Title)
	assert.Equal(t, "c", p.Content.PlainText())
	assert.Equal(t, time.Date(2023, 7, 4, 10, 15, 30, 0, time.UTC), p.Date)

	r.Content = []byte(`{"color":"red"}`)
	_, err = r.Post(time.UTC)
	assert.ErrorIs(t, err, richtext.ErrMalformedRichText)

	r.Content = []byte(`"fine"`)
	r.Date = "last tuesday"
	_, err = r.Post(time.UTC)
	assert.Error(t, err)
}
