package history

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termichan/termichan/internal/config"
)

func testHistoryConfig(t *testing.T) config.HistoryConfig {
	t.Helper()
	return config.HistoryConfig{
		Enabled:    true,
		FilePath:   filepath.Join(t.TempDir(), "history.json"),
		MaxEntries: 5,
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	h, err := Load(testHistoryConfig(t))
	require.NoError(t, err)
	assert.Empty(t, h.Entries)
}

func TestSaveAndReload(t *testing.T) {
	cfg := testHistoryConfig(t)

	h, err := Load(cfg)
	require.NoError(t, err)

	h.Add(NewEntry("list files", "ls -la", true, true, nil))
	h.Add(NewEntry("disk usage", "du -sh .", false, false, []string{"make it human readable"}))
	require.NoError(t, h.Save())

	reloaded, err := Load(cfg)
	require.NoError(t, err)
	require.Len(t, reloaded.Entries, 2)
	assert.Equal(t, "ls -la", reloaded.Entries[0].Command)
	assert.True(t, reloaded.Entries[0].Executed)
	assert.Equal(t, []string{"make it human readable"}, reloaded.Entries[1].Modifications)
}

func TestMaxEntriesDropsOldest(t *testing.T) {
	cfg := testHistoryConfig(t)

	h, err := Load(cfg)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		h.Add(NewEntry(fmt.Sprintf("request %d", i), fmt.Sprintf("cmd-%d", i), true, false, nil))
	}

	require.Len(t, h.Entries, 5)
	assert.Equal(t, "cmd-3", h.Entries[0].Command, "oldest entries are dropped first")
	assert.Equal(t, "cmd-7", h.Entries[4].Command)
}

func TestDisabledHistoryIsNoOp(t *testing.T) {
	cfg := testHistoryConfig(t)
	cfg.Enabled = false

	h, err := Load(cfg)
	require.NoError(t, err)

	h.Add(NewEntry("list files", "ls", true, false, nil))
	assert.Empty(t, h.Entries)
	require.NoError(t, h.Save())
	assert.NoFileExists(t, cfg.FilePath)
}
