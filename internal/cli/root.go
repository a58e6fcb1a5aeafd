// Package cli implements warehousectl's subcommands: migrate, seed, replay,
// and export/import. Grounded on the teacher's internal/cli (RootOptions
// threaded through cobra.Command constructors, SilenceUsage/SilenceErrors
// so errors are reported once by main, not twice by cobra).
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by every subcommand.
type RootOptions struct {
	DatabasePath string
	Verbose      bool
}

// NewRootCommand builds the warehousectl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "warehousectl",
		Short: "warehousectl - operational tooling for the warehouse inventory service",
	}

	cmd.PersistentFlags().StringVar(&opts.DatabasePath, "db", "warehouse.db", "path to the SQLite database")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}
