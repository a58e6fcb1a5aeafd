package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raimangsxr/my-warehouse/internal/store"
)

// NewMigrateCommand creates the migrate command. store.Open applies the
// embedded schema on every call, so this is just that call wrapped for
// operator use outside of warehoused's own startup.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the database schema, creating the database file if needed",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(rootOpts.DatabasePath, nil)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied to %s\n", rootOpts.DatabasePath)
			return nil
		},
	}
	return cmd
}
