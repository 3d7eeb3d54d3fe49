package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bulletinboard/domain"
	"bulletinboard/logging"
	"bulletinboard/shortid"
	"bulletinboard/temporal"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	tablePosts   = "posts"
	tableDeleted = "deletedPosts"
)

const (
	selectColumns = `SELECT id, author, title, content, CAST(date AS TEXT) AS date FROM `
	insertColumns = ` (id, author, title, content, date) VALUES (:id, :author, :title, :content, :date)`
)

// Queries runs single statements against a connection or a transaction.
type Queries struct {
	ext sqlx.ExtContext
	log logging.Logger
	loc *time.Location
}

func (q *Queries) withExt(ext sqlx.ExtContext) *Queries {
	return &Queries{ext: ext, log: q.log, loc: q.loc}
}

// InsertPost writes p to posts. With preserveOriginalID the row keeps
// p.StoredID when it is the canonical text of p.ID; otherwise the short
// form is used. Dates are stored to the second; any fraction is truncated.
func (q *Queries) InsertPost(ctx context.Context, p domain.Post, preserveOriginalID bool) error {
	return q.insert(ctx, "insert_post", tablePosts, p, storageID(p, preserveOriginalID))
}

// InsertDeletedPost writes p to deletedPosts under its original id.
func (q *Queries) InsertDeletedPost(ctx context.Context, p domain.Post) error {
	return q.insert(ctx, "insert_deleted_post", tableDeleted, p, storageID(p, true))
}

func (q *Queries) insert(ctx context.Context, op, table string, p domain.Post, storedID string) error {
	if err := validatePost(p); err != nil {
		return err
	}
	p.Date = p.Date.Truncate(time.Second)

	for _, t := range []string{tablePosts, tableDeleted} {
		existing, err := q.findRow(ctx, op, t, storedID)
		if err != nil {
			return err
		}
		if existing != nil {
			q.log.Warn(ctx, "post already exists", "op", op, "table", t, "id", existing.ID)
			return fmt.Errorf("%w: %s: %w", ErrStoreWrite, storedID, ErrPostExists)
		}
	}

	row, err := encodeRow(p, storedID)
	if err != nil {
		return fmt.Errorf("%w: encode post %s: %w", ErrStoreWrite, storedID, err)
	}
	return q.insertRow(ctx, op, table, row)
}

func (q *Queries) insertRow(ctx context.Context, op, table string, row postRow) error {
	if _, err := sqlx.NamedExecContext(ctx, q.ext, "INSERT INTO "+table+insertColumns, row); err != nil {
		q.log.Error(ctx, "insert failed", "op", op, "table", table, "id", row.ID, "error", err)
		return fmt.Errorf("%w: insert %s into %s: %w", ErrStoreWrite, row.ID, table, err)
	}
	return nil
}

// findRow returns the row stored under any spelling of id, or nil. When
// several spellings are stored the lowest id wins.
func (q *Queries) findRow(ctx context.Context, op, table, id string) (*postRow, error) {
	candidates, err := shortid.Candidates(id)
	if err != nil {
		return nil, err
	}
	query, args, err := sqlx.In(selectColumns+table+` WHERE id IN (?) ORDER BY id`, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	var rows []postRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, args...); err != nil {
		q.log.Error(ctx, "query failed", "op", op, "table", table, "id", id, "error", err)
		return nil, fmt.Errorf("%w: select %s from %s: %w", ErrStoreRead, id, table, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) > 1 {
		q.log.Warn(ctx, "post stored under several ids", "op", op, "table", table, "id", rows[0].ID, "rows", len(rows))
	}
	return &rows[0], nil
}

// getOne looks id up in table. A row that cannot be decoded is logged and
// reported as absent.
func (q *Queries) getOne(ctx context.Context, op, table, id string) (*domain.Post, error) {
	row, err := q.findRow(ctx, op, table, id)
	if err != nil || row == nil {
		return nil, err
	}
	p, err := decodeRow(*row, q.loc)
	if err != nil {
		q.log.Warn(ctx, "skipping unreadable row", "op", op, "table", table, "id", row.ID, "error", err)
		return nil, nil
	}
	return &p, nil
}

// list decodes every matching row, skipping the ones that cannot be read,
// and orders the result by date.
func (q *Queries) list(ctx context.Context, op, table, where string, args ...any) ([]domain.Post, error) {
	var rows []postRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, selectColumns+table+where, args...); err != nil {
		q.log.Error(ctx, "query failed", "op", op, "table", table, "error", err)
		return nil, fmt.Errorf("%w: select from %s: %w", ErrStoreRead, table, err)
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		p, err := decodeRow(r, q.loc)
		if err != nil {
			q.log.Warn(ctx, "skipping unreadable row", "op", op, "table", table, "id", r.ID, "error", err)
			continue
		}
		posts = append(posts, p)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.Before(posts[j].Date)
	})
	return posts, nil
}

// GetAllPosts returns every readable active post, oldest first.
func (q *Queries) GetAllPosts(ctx context.Context) ([]domain.Post, error) {
	return q.list(ctx, "get_all_posts", tablePosts, "")
}

func (q *Queries) GetPostsByAuthor(ctx context.Context, author uuid.UUID) ([]domain.Post, error) {
	return q.list(ctx, "get_posts_by_author", tablePosts, ` WHERE author = ?`, author.String())
}

// GetPost returns the active post with the given id in either form, or nil
// when there is none.
func (q *Queries) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return q.getOne(ctx, "get_post", tablePosts, id)
}

func (q *Queries) GetDeletedPostsByAuthor(ctx context.Context, author uuid.UUID) ([]domain.Post, error) {
	return q.list(ctx, "get_deleted_posts_by_author", tableDeleted, ` WHERE author = ?`, author.String())
}

func (q *Queries) GetDeletedPost(ctx context.Context, id string) (*domain.Post, error) {
	return q.getOne(ctx, "get_deleted_post", tableDeleted, id)
}

// DeletePost moves the active post id to deletedPosts. Call it inside a
// transaction; Store.DeletePost does.
func (q *Queries) DeletePost(ctx context.Context, id string) error {
	return q.move(ctx, "delete_post", tablePosts, tableDeleted, id)
}

// RestorePost moves the deleted post id back to posts.
func (q *Queries) RestorePost(ctx context.Context, id string) error {
	return q.move(ctx, "restore_post", tableDeleted, tablePosts, id)
}

// move copies the row under the same stored id and removes the source. A
// row that cannot be decoded is not moved. Title and content are copied as
// stored; only the date is rewritten.
func (q *Queries) move(ctx context.Context, op, from, to, id string) error {
	row, err := q.findRow(ctx, op, from, id)
	if err != nil {
		return err
	}
	if row == nil {
		q.log.Warn(ctx, "post not found", "op", op, "table", from, "id", id)
		return fmt.Errorf("%w: %s", ErrPostNotFound, id)
	}

	p, err := decodeRow(*row, q.loc)
	if err != nil {
		q.log.Error(ctx, "cannot move unreadable row", "op", op, "table", from, "id", row.ID, "error", err)
		return fmt.Errorf("%w: decode %s: %w", ErrStoreRead, row.ID, err)
	}

	existing, err := q.findRow(ctx, op, to, row.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		q.log.Error(ctx, "post already exists", "op", op, "table", to, "id", existing.ID)
		return fmt.Errorf("%w: %s: %w", ErrStoreWrite, row.ID, ErrPostExists)
	}

	moved := postRow{
		ID:      row.ID,
		Author:  row.Author,
		Title:   row.Title,
		Content: row.Content,
		Date:    temporal.Format(p.Date),
	}
	if err := q.insertRow(ctx, op, to, moved); err != nil {
		return err
	}
	if err := q.deleteRow(ctx, op, from, row.ID); err != nil {
		return err
	}

	q.log.Info(ctx, "post moved", "op", op, "from", from, "to", to, "id", row.ID)
	return nil
}

// PurgePost removes a deleted post for good.
func (q *Queries) PurgePost(ctx context.Context, id string) error {
	row, err := q.findRow(ctx, "purge_post", tableDeleted, id)
	if err != nil {
		return err
	}
	if row == nil {
		q.log.Warn(ctx, "post not found", "op", "purge_post", "table", tableDeleted, "id", id)
		return fmt.Errorf("%w: %s", ErrPostNotFound, id)
	}
	if err := q.deleteRow(ctx, "purge_post", tableDeleted, row.ID); err != nil {
		return err
	}
	q.log.Info(ctx, "post purged", "id", row.ID)
	return nil
}

func (q *Queries) deleteRow(ctx context.Context, op, table, storedID string) error {
	res, err := q.ext.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", storedID)
	if err != nil {
		q.log.Error(ctx, "delete failed", "op", op, "table", table, "id", storedID, "error", err)
		return fmt.Errorf("%w: delete %s from %s: %w", ErrStoreWrite, storedID, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete %s from %s: %w", ErrStoreWrite, storedID, table, err)
	}
	if n != 1 {
		q.log.Error(ctx, "unexpected delete count", "op", op, "table", table, "id", storedID, "rows", n)
		return fmt.Errorf("%w: delete %s from %s: %d rows affected", ErrStoreWrite, storedID, table, n)
	}
	return nil
}
