package cli

import (
	"strings"
	"testing"
)

// extractWarehouseID pulls the warehouse id out of runSeed's summary line
// ("seeded user=... warehouse=<id> box=<id> item=<id>").
func extractWarehouseID(t *testing.T, seedOutput string) string {
	t.Helper()
	const marker = "warehouse="
	idx := strings.Index(seedOutput, marker)
	if idx < 0 {
		t.Fatalf("seed output missing warehouse id: %q", seedOutput)
	}
	rest := seedOutput[idx+len(marker):]
	return strings.Fields(rest)[0]
}
