package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay_EmptyDatabaseReportsZeroEntries(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	rootOpts := &RootOptions{DatabasePath: dbPath}

	migrateCmd := NewMigrateCommand(rootOpts)
	migrateCmd.SetOut(&bytes.Buffer{})
	require.NoError(t, migrateCmd.Execute())

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"some-warehouse"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "0 entries")
}

func TestReplay_ShowsEntriesAfterSeed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	rootOpts := &RootOptions{DatabasePath: dbPath}

	seedCmd := NewSeedCommand(rootOpts)
	seedBuf := &bytes.Buffer{}
	seedCmd.SetOut(seedBuf)
	require.NoError(t, seedCmd.Execute())

	warehouseID := extractWarehouseID(t, seedBuf.String())

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{warehouseID})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "entity=box")
	assert.Contains(t, output, "entity=item")
}

func TestReplay_RequiresExactlyOneArg(t *testing.T) {
	rootOpts := &RootOptions{DatabasePath: filepath.Join(t.TempDir(), "test.db")}
	cmd := NewReplayCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
}
