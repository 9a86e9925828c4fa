package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/koyomi/internal/session"
)

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(session.NewStore(time.Minute), "not a schedule")
	assert.Error(t, err)
}

func TestPruneRemovesExpiredStates(t *testing.T) {
	store := session.NewStore(time.Nanosecond)
	store.RememberState("stale-nonce", "sess-1")
	time.Sleep(time.Millisecond)

	r, err := New(store, "@every 1h")
	require.NoError(t, err)
	r.pruneOAuthStates()

	assert.Equal(t, "", store.ConsumeState("stale-nonce"))
}
