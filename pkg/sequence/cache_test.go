package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache_GetMissing(t *testing.T) {
	c := New()
	_, ok := c.Get("alice")
	require.False(t, ok)
}

func TestCache_NextForSubmission_SeedsFromRemote(t *testing.T) {
	c := New()
	require.Equal(t, uint64(7), c.NextForSubmission("alice", 7))

	v, ok := c.Get("alice")
	require.True(t, ok)
	require.Equal(t, uint64(8), v)
}

func TestCache_NextForSubmission_Monotonic(t *testing.T) {
	c := New()
	// The remote lags behind while transactions are in flight.
	for i := uint64(0); i < 5; i++ {
		require.Equal(t, 10+i, c.NextForSubmission("alice", 10))
	}
	require.Equal(t, 1, c.Len())
}

func TestCache_NextForSubmission_RemoteAhead(t *testing.T) {
	c := New()
	c.NextForSubmission("alice", 3)
	require.Equal(t, uint64(20), c.NextForSubmission("alice", 20))

	v, _ := c.Get("alice")
	require.Equal(t, uint64(21), v)
}

func TestCache_Reconcile(t *testing.T) {
	c := New()
	c.NextForSubmission("alice", 5)
	c.NextForSubmission("alice", 5)

	// A submission failed; the node still expects 6.
	c.Reconcile("alice", 6)
	v, _ := c.Get("alice")
	require.Equal(t, uint64(6), v)
	require.GreaterOrEqual(t, c.NextForSubmission("alice", 6), uint64(6))
}

func TestCache_AccountsIsolated(t *testing.T) {
	c := New()
	require.Equal(t, uint64(1), c.NextForSubmission("alice", 1))
	require.Equal(t, uint64(9), c.NextForSubmission("bob", 9))
	require.Equal(t, uint64(2), c.NextForSubmission("alice", 0))

	other := New()
	_, ok := other.Get("alice")
	require.False(t, ok)
}
