package store

import "errors"

var (
	// ErrConnection means the database could not be opened or reached.
	ErrConnection = errors.New("database connection error")

	// ErrStoreWrite wraps every failed insert, update, delete or commit.
	ErrStoreWrite = errors.New("store write error")

	// ErrStoreRead wraps every failed query.
	ErrStoreRead = errors.New("store read error")

	// ErrPostNotFound is reported by lifecycle moves when the id is in
	// neither expected table. Lookups return nil instead.
	ErrPostNotFound = errors.New("post not found")

	// ErrPostExists is wrapped together with ErrStoreWrite when an insert
	// would give one id a second row in either table.
	ErrPostExists = errors.New("post already exists")

	// ErrInvalidPost is returned before writing a post with a nil id or
	// author, or an empty title or content.
	ErrInvalidPost = errors.New("invalid post")
)
