package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"bulletinboard/config"
	"bulletinboard/handler"
	"bulletinboard/legacy"
	"bulletinboard/logging"
	"bulletinboard/store"
)

// app is everything a command needs, built from the layered config.
type app struct {
	cfg     *config.Config
	log     logging.Logger
	store   *store.Store
	handler *handler.Handler
}

// openApp loads the configuration, opens the database and, unless
// skipImport is set, imports the legacy document when one is present.
func openApp(ctx context.Context, opts *RootOptions, logOut io.Writer, skipImport bool) (*app, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Timezone != "" {
		cfg.Timezone = opts.Timezone
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "bad configuration", err)
	}

	log, err := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "bad configuration", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "bad configuration", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create data directory", err)
	}
	st, err := store.Open(ctx, cfg.DatabasePath(), store.WithLogger(log), store.WithLocation(loc))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		store: st,
		handler: &handler.Handler{
			Store:    st,
			Importer: legacy.NewImporter(st, log, loc),
			Sessions: handler.NewSessionStore(),
			Log:      log,
		},
	}

	if !skipImport {
		if err := a.autoImport(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

// autoImport runs the legacy import when the document exists. A missing
// document leaves the flag unset so a file dropped in later still counts.
func (a *app) autoImport(ctx context.Context) error {
	path := a.cfg.LegacyPath()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if _, err := a.handler.Migrate(ctx, path); err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to import %s", path), err)
	}
	return nil
}

func (a *app) Close() error {
	return a.store.Close()
}
