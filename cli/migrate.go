package cli

import (
	"fmt"
	"strings"

	"bulletinboard/legacy"

	"github.com/spf13/cobra"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	File string
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import the legacy JSON document",
		Long: `Import posts from the legacy JSON document into the database.

The import runs once. Later runs report that it was already applied.

Examples:
  bulletinboard migrate
  bulletinboard migrate --file ./old/data.json --timezone Asia/Tokyo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "legacy document (default: legacy_file in the data directory)")

	return cmd
}

type migrateView struct {
	legacy.Report
}

func (v migrateView) String() string {
	if v.Skipped {
		return "Legacy data already migrated."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d posts and %d deleted posts.", v.Imported, v.ImportedDeleted)
	if n := len(v.Existing); n > 0 {
		fmt.Fprintf(&b, "\nSkipped %d already stored.", n)
	}
	for _, r := range v.Invalid {
		fmt.Fprintf(&b, "\nRejected %q: %s", r.ID, r.Reason)
	}
	if v.Permissions > 0 {
		fmt.Fprintf(&b, "\nLeft %d permission entries to the authorization service.", v.Permissions)
	}
	return b.String()
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	path := opts.File
	if path == "" {
		path = a.cfg.LegacyPath()
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no legacy document configured")
	}

	rep, err := a.handler.Migrate(ctx, path)
	if err != nil {
		return wrapOpError("migration failed", err)
	}
	return out.Success(migrateView{rep})
}
