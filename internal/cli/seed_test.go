package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/store"
)

func TestSeed_PopulatesDemoData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	rootOpts := &RootOptions{DatabasePath: dbPath}

	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "seeded user=demo@example.com")

	s, err := store.Open(dbPath, nil)
	require.NoError(t, err)
	defer s.Close()

	var userCount, warehouseCount, boxCount, itemCount int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM users`).Scan(&userCount))
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM warehouses`).Scan(&warehouseCount))
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM boxes`).Scan(&boxCount))
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM items`).Scan(&itemCount))
	assert.Equal(t, 1, userCount)
	assert.Equal(t, 1, warehouseCount)
	assert.Equal(t, 1, boxCount)
	assert.Equal(t, 1, itemCount)
}

func TestSeed_CustomFlagsOverrideDefaults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	rootOpts := &RootOptions{DatabasePath: dbPath}

	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--email", "custom@example.com", "--warehouse", "Custom Warehouse"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "seeded user=custom@example.com")
}

func TestSeed_RejectsDuplicateRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	rootOpts := &RootOptions{DatabasePath: dbPath}

	cmd := NewSeedCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	cmd = NewSeedCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err, "seeding the same email twice must surface the conflict")
}
