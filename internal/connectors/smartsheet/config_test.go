package smartsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetsync/internal/adapters/driven/storage/memory"
)

func TestParseConfig(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set(KeyAPIToken, "tok-123"))
	require.NoError(t, store.Set(KeySheetIDs, "111, 222,,333"))

	cfg, err := ParseConfig(store)
	require.NoError(t, err)

	assert.Equal(t, "tok-123", cfg.APIToken)
	assert.Equal(t, []string{"111", "222", "333"}, cfg.SheetIDs)
}

func TestParseConfigMissingToken(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set(KeySheetIDs, "111"))

	_, err := ParseConfig(store)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestParseConfigMissingSheetIDs(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set(KeyAPIToken, "tok-123"))
	require.NoError(t, store.Set(KeySheetIDs, " , "))

	_, err := ParseConfig(store)
	assert.ErrorIs(t, err, ErrMissingSheetIDs)
}
