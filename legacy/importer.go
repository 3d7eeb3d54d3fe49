package legacy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bulletinboard/domain"
	"bulletinboard/logging"
	"bulletinboard/store"

	"github.com/go-playground/validator/v10"
)

// ErrMigrationAlreadyApplied is used internally when the flag is found set
// inside the import transaction. Run reports it as Report.Skipped.
var ErrMigrationAlreadyApplied = errors.New("legacy data already migrated")

// Store is the part of store.Store the importer needs.
type Store interface {
	GetConfig(ctx context.Context, key string) (string, bool, error)
	InTx(ctx context.Context, fn func(q *store.Queries) error) error
}

type Importer struct {
	store    Store
	log      logging.Logger
	loc      *time.Location
	validate *validator.Validate
}

// NewImporter returns an Importer reading offset-less dates in loc.
func NewImporter(s Store, log logging.Logger, loc *time.Location) *Importer {
	if log == nil {
		log = logging.Discard()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Importer{
		store:    s,
		log:      log.With("component", "legacy"),
		loc:      loc,
		validate: validator.New(),
	}
}

// Report describes the outcome of Run.
type Report struct {
	Skipped         bool       `json:"skipped"`
	Imported        int        `json:"imported"`
	ImportedDeleted int        `json:"imported_deleted"`
	Existing        []string   `json:"existing,omitempty"`
	Invalid         []Rejected `json:"invalid,omitempty"`
	Permissions     int        `json:"permissions"`
}

// Rejected is a record that failed validation or conversion.
type Rejected struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// IsMigrated reports whether the import already ran.
func (im *Importer) IsMigrated(ctx context.Context) (bool, error) {
	v, ok, err := im.store.GetConfig(ctx, domain.ConfigKeyDataMigrated)
	if err != nil {
		return false, err
	}
	return ok && v == "true", nil
}

// RunFile loads the document at path and runs it.
func (im *Importer) RunFile(ctx context.Context, path string) (Report, error) {
	done, err := im.IsMigrated(ctx)
	if err != nil {
		return Report{}, err
	}
	if done {
		im.log.Debug(ctx, "legacy data already migrated")
		return Report{Skipped: true}, nil
	}

	doc, err := Load(path)
	if err != nil {
		return Report{}, err
	}
	if doc.Empty() {
		im.log.Info(ctx, "legacy document is empty or missing", "path", path)
	}
	return im.Run(ctx, doc)
}

// Run imports doc in one transaction and sets the migrated flag. Records
// that fail validation or whose id is already stored are skipped. Any
// store error rolls the whole import back.
func (im *Importer) Run(ctx context.Context, doc *Document) (Report, error) {
	done, err := im.IsMigrated(ctx)
	if err != nil {
		return Report{}, err
	}
	if done {
		return Report{Skipped: true}, nil
	}

	var rep Report
	err = im.store.InTx(ctx, func(q *store.Queries) error {
		rep = Report{}

		v, ok, err := q.GetConfig(ctx, domain.ConfigKeyDataMigrated)
		if err != nil {
			return err
		}
		if ok && v == "true" {
			return ErrMigrationAlreadyApplied
		}

		for _, r := range doc.Posts {
			imported, err := im.importRecord(ctx, q, r, false, &rep)
			if err != nil {
				return err
			}
			if imported {
				rep.Imported++
			}
		}
		for _, r := range doc.DeletedPosts {
			imported, err := im.importRecord(ctx, q, r, true, &rep)
			if err != nil {
				return err
			}
			if imported {
				rep.ImportedDeleted++
			}
		}

		rep.Permissions = len(doc.Permissions)
		if rep.Permissions > 0 {
			im.log.Info(ctx, "legacy permissions left to the authorization service", "count", rep.Permissions)
		}

		return q.SetConfig(ctx, domain.ConfigKeyDataMigrated, "true")
	})
	if errors.Is(err, ErrMigrationAlreadyApplied) {
		return Report{Skipped: true}, nil
	}
	if err != nil {
		im.log.Error(ctx, "legacy import rolled back", "error", err)
		return Report{}, fmt.Errorf("import legacy data: %w", err)
	}

	im.log.Info(ctx, "legacy data imported",
		"posts", rep.Imported,
		"deleted_posts", rep.ImportedDeleted,
		"existing", len(rep.Existing),
		"invalid", len(rep.Invalid))
	return rep, nil
}

func (im *Importer) importRecord(ctx context.Context, q *store.Queries, r Record, deleted bool, rep *Report) (bool, error) {
	if err := im.validate.Struct(r); err != nil {
		im.log.Warn(ctx, "invalid legacy record", "id", r.ID, "error", err)
		rep.Invalid = append(rep.Invalid, Rejected{ID: r.ID, Reason: err.Error()})
		return false, nil
	}
	p, err := r.Post(im.loc)
	if err != nil {
		im.log.Warn(ctx, "unreadable legacy record", "id", r.ID, "error", err)
		rep.Invalid = append(rep.Invalid, Rejected{ID: r.ID, Reason: err.Error()})
		return false, nil
	}

	if deleted {
		err = q.InsertDeletedPost(ctx, p)
	} else {
		err = q.InsertPost(ctx, p, true)
	}
	switch {
	case errors.Is(err, store.ErrPostExists):
		rep.Existing = append(rep.Existing, r.ID)
		return false, nil
	case errors.Is(err, store.ErrInvalidPost):
		rep.Invalid = append(rep.Invalid, Rejected{ID: r.ID, Reason: err.Error()})
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
