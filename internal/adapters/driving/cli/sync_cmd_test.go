package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync", syncCmd.Use)
}

func TestSyncCmd_HasDryRunFlag(t *testing.T) {
	flag := syncCmd.Flags().Lookup("dry-run")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestSyncCmd_Unconfigured(t *testing.T) {
	originalConfigDir := configDir
	originalDataDir := dataDir
	configDir = t.TempDir()
	dataDir = t.TempDir()
	defer func() {
		configDir = originalConfigDir
		dataDir = originalDataDir
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheetsync configure")
}

func TestSchemaCmd_Use(t *testing.T) {
	assert.Equal(t, "schema", schemaCmd.Use)
}

func TestDaemonCmd_HasIntervalFlag(t *testing.T) {
	flag := daemonCmd.Flags().Lookup("interval")
	require.NotNil(t, flag)
	assert.Equal(t, "15m0s", flag.DefValue)
}

func TestNewTable_RendersHeadersAndRows(t *testing.T) {
	tbl := newTable("SHEET ID", "TABLE")
	tbl.Row("111", "budget_2024")

	out := tbl.Render()
	assert.Contains(t, out, "SHEET ID")
	assert.Contains(t, out, "budget_2024")
}
