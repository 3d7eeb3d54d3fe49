// Package db embeds the SQL schema migrations applied by store.Open.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
