package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/store"
	"github.com/raimangsxr/my-warehouse/internal/transfer"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	WarehouseID string
	OutPath     string
}

// NewExportCommand creates the export command: snapshot a warehouse to a
// JSON file on disk, for offline backup or transfer between deployments.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <warehouse-id>",
		Short: "Export a warehouse snapshot to a JSON file",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WarehouseID = args[0]
			return runExport(opts)
		},
	}

	cmd.Flags().StringVar(&opts.OutPath, "out", "snapshot.json", "output file path")

	return cmd
}

func runExport(opts *ExportOptions) error {
	s, err := store.Open(opts.DatabasePath, nil)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer s.Close()

	boxMgr := boxes.New(nil)
	engine := transfer.New(boxMgr, nil)

	snap, err := engine.Export(context.Background(), s.DB(), opts.WarehouseID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode snapshot: %w", err)
	}
	if err := os.WriteFile(opts.OutPath, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", opts.OutPath, err)
	}
	return nil
}
