package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/store"
	"github.com/raimangsxr/my-warehouse/internal/transfer"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	WarehouseID string
	InPath      string
}

// NewImportCommand creates the import command: load a JSON snapshot
// produced by export into an existing target warehouse.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <warehouse-id>",
		Short: "Import a JSON snapshot into an existing warehouse",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WarehouseID = args[0]
			return runImport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.InPath, "in", "snapshot.json", "input file path")

	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions) error {
	data, err := os.ReadFile(opts.InPath)
	if err != nil {
		return fmt.Errorf("import: read %s: %w", opts.InPath, err)
	}

	var snap transfer.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("import: decode %s: %w", opts.InPath, err)
	}

	s, err := store.Open(opts.DatabasePath, nil)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer s.Close()

	boxMgr := boxes.New(nil)
	engine := transfer.New(boxMgr, nil)

	var result transfer.ImportResult
	err = runInTx(context.Background(), s.DB(), func(tx *sql.Tx) error {
		res, err := engine.Import(context.Background(), tx, opts.WarehouseID, snap, time.Now().UTC())
		result = res
		return err
	})
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported boxes=%d items=%d stock_movements=%d\n",
		result.BoxesImported, result.ItemsImported, result.StockMovementsImported)
	return nil
}
