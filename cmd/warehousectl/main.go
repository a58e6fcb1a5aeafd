// Command warehousectl is the operational CLI: schema migration, demo
// seeding, change-log replay, and snapshot export/import. Grounded on the
// teacher's internal/cli package; this file is the thin binary entrypoint,
// grounded on cuemby-warren/cmd/warren-migrate's pattern of a minimal main
// delegating to a flag/command layer.
package main

import (
	"fmt"
	"os"

	"github.com/raimangsxr/my-warehouse/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
