// Package store persists posts in SQLite.
//
// Posts live in one of two tables: posts for active ones and deletedPosts
// for soft-deleted ones. An id is in at most one of them. Moves between the
// tables run in a single transaction. The connection pool is limited to one
// connection, so every statement is serialized.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	schema "bulletinboard/db"
	"bulletinboard/domain"
	"bulletinboard/logging"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Store is the handle shared by every operation. Single-statement
// operations come from the embedded Queries; operations that touch both
// tables are overridden here to run in a transaction.
type Store struct {
	*Queries

	db        *sqlx.DB
	closeOnce sync.Once
	closeErr  error
}

type Option func(*Queries)

// WithLogger sets the logger used for failed statements and skipped rows.
func WithLogger(l logging.Logger) Option {
	return func(q *Queries) {
		if l != nil {
			q.log = l
		}
	}
}

// WithLocation sets the zone applied to legacy timestamps without offset.
func WithLocation(loc *time.Location) Option {
	return func(q *Queries) {
		if loc != nil {
			q.loc = loc
		}
	}
}

// DSN returns the connection string for the database file at path.
func DSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open connects to the database file at path, creating it if needed, and
// brings the schema up to date.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open(driverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrConnection, path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnection, path, err)
	}
	if err := migrateUp(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %w", ErrConnection, path, err)
	}

	s := New(db, opts...)
	s.log.Info(ctx, "database ready", "path", path)
	return s, nil
}

// New wraps an already migrated connection.
func New(db *sqlx.DB, opts ...Option) *Store {
	q := &Queries{ext: db, log: logging.Discard(), loc: time.Local}
	for _, opt := range opts {
		opt(q)
	}
	return &Store{Queries: q, db: db}
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(schema.Migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the connection. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// InTx runs fn with Queries bound to one transaction. The transaction is
// committed when fn returns nil and rolled back otherwise, also on panic.
// fn must only use the Queries it is given.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ErrStoreWrite, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("%w: commit: %w", ErrStoreWrite, cerr)
		}
	}()

	return fn(s.Queries.withExt(tx))
}

// InsertPost adds an active post. It fails when the id already has a row
// in either table.
func (s *Store) InsertPost(ctx context.Context, p domain.Post, preserveOriginalID bool) error {
	return s.InTx(ctx, func(q *Queries) error {
		return q.InsertPost(ctx, p, preserveOriginalID)
	})
}

// InsertDeletedPost adds a post straight to deletedPosts, keeping its
// stored id.
func (s *Store) InsertDeletedPost(ctx context.Context, p domain.Post) error {
	return s.InTx(ctx, func(q *Queries) error {
		return q.InsertDeletedPost(ctx, p)
	})
}

// DeletePost moves an active post to deletedPosts.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.InTx(ctx, func(q *Queries) error {
		return q.DeletePost(ctx, id)
	})
}

// RestorePost moves a deleted post back to posts.
func (s *Store) RestorePost(ctx context.Context, id string) error {
	return s.InTx(ctx, func(q *Queries) error {
		return q.RestorePost(ctx, id)
	})
}
