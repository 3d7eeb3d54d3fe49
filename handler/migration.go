package handler

import (
	"context"
	"errors"

	"bulletinboard/legacy"
)

var errNoImporter = errors.New("no legacy importer configured")

// MigrationStatus reports whether the legacy document was imported.
func (h *Handler) MigrationStatus(ctx context.Context) (bool, error) {
	if h.Importer == nil {
		return false, errNoImporter
	}
	return h.Importer.IsMigrated(ctx)
}

// Migrate imports the legacy document at path unless that already happened.
func (h *Handler) Migrate(ctx context.Context, path string) (legacy.Report, error) {
	if h.Importer == nil {
		return legacy.Report{}, errNoImporter
	}
	rep, err := h.Importer.RunFile(ctx, path)
	if err != nil {
		return legacy.Report{}, err
	}
	if rep.Skipped {
		h.log().Info(ctx, "legacy migration already applied")
	}
	return rep, nil
}
