package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := Expand("~/data/reminders.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "reminders.json"), got)

	got, err = Expand("~")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(home), got)

	got, err = Expand("  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	t.Setenv("KOYOMI_TEST_DIR", "/var/lib/koyomi")
	got, err = Expand("$KOYOMI_TEST_DIR/store.json")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/koyomi/store.json", got)
}
