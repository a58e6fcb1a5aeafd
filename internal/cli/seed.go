package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raimangsxr/my-warehouse/internal/authsvc"
	"github.com/raimangsxr/my-warehouse/internal/authtoken"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/membership"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Email         string
	Password      string
	WarehouseName string
}

// NewSeedCommand creates the seed command: one user, one warehouse, one
// root box, one item — enough to exercise a fresh deployment end to end.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Populate a fresh database with a demo user, warehouse, box, and item",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "demo@example.com", "demo user email")
	cmd.Flags().StringVar(&opts.Password, "password", "changeme123", "demo user password")
	cmd.Flags().StringVar(&opts.WarehouseName, "warehouse", "Demo Warehouse", "demo warehouse name")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	s, err := store.Open(opts.DatabasePath, nil)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer s.Close()

	membershipMgr := membership.New()
	issuer := authtoken.NewIssuer("seed-only-placeholder-secret", 15)
	authMgr := authsvc.New(issuer, 30, membershipMgr)
	boxMgr := boxes.New(nil)
	itemMgr := items.New(boxMgr, nil)

	now := time.Now().UTC()
	ctx := context.Background()

	var (
		warehouseID string
		boxID       string
		itemID      string
	)

	err = runInTx(ctx, s.DB(), func(tx *sql.Tx) error {
		user, err := authMgr.Signup(ctx, tx, opts.Email, opts.Password, now)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		wh, err := authMgr.CreateWarehouse(ctx, tx, user.ID, opts.WarehouseName, now)
		if err != nil {
			return fmt.Errorf("create warehouse: %w", err)
		}
		warehouseID = wh.ID

		box, err := boxMgr.Create(ctx, tx, boxes.CreateParams{
			WarehouseID: wh.ID,
			Name:        "Root box",
		}, now)
		if err != nil {
			return fmt.Errorf("create box: %w", err)
		}
		boxID = box.ID

		item, err := itemMgr.Create(ctx, tx, items.CreateParams{
			WarehouseID: wh.ID,
			BoxID:       box.ID,
			Name:        "Sample item",
		}, now)
		if err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		itemID = item.ID
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded user=%s warehouse=%s box=%s item=%s\n", opts.Email, warehouseID, boxID, itemID)
	return nil
}

func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
