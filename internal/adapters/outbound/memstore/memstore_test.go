package memstore_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/declue/container-ops/internal/adapters/outbound/memstore"
	"github.com/declue/container-ops/internal/logic/alerting"
)

func TestStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000000)
	store := memstore.NewStore().WithClock(func() time.Time { return now })

	require.NoError(t, store.PutSnapshot(t.Context(), "metrics:1", []byte("a"), time.Hour))

	value, ok := store.Get(t.Context(), "metrics:1")
	require.True(t, ok)
	require.Equal(t, []byte("a"), value)

	now = now.Add(2 * time.Hour)

	_, ok = store.Get(t.Context(), "metrics:1")
	require.False(t, ok)
	require.Zero(t, store.Len())
}

func TestStore_KeysByPrefix(t *testing.T) {
	t.Parallel()

	store := memstore.NewStore()

	require.NoError(t, store.PutSnapshot(t.Context(), "metrics:1", []byte("a"), time.Hour))
	require.NoError(t, store.PutSnapshot(t.Context(), "metrics:2", []byte("b"), time.Hour))
	require.NoError(t, store.PutSnapshot(t.Context(), "other:1", []byte("c"), time.Hour))

	keys := store.Keys(t.Context(), "metrics:")
	require.ElementsMatch(t, []string{"metrics:1", "metrics:2"}, keys)
}

func TestStore_ValueIsCopied(t *testing.T) {
	t.Parallel()

	store := memstore.NewStore()
	payload := []byte("original")

	require.NoError(t, store.PutSnapshot(t.Context(), "k", payload, time.Hour))
	payload[0] = 'X'

	value, ok := store.Get(t.Context(), "k")
	require.True(t, ok)
	require.Equal(t, []byte("original"), value)
}

func TestHistory_BoundedMostRecentFirst(t *testing.T) {
	t.Parallel()

	history := memstore.NewHistory(3)

	for i := 1; i <= 5; i++ {
		history.Append(t.Context(), alerting.HistoryEntry{ID: fmt.Sprintf("e%d", i)})
	}

	entries := history.List(t.Context())
	require.Len(t, entries, 3)
	require.Equal(t, "e5", entries[0].ID)
	require.Equal(t, "e4", entries[1].ID)
	require.Equal(t, "e3", entries[2].ID)
}

func TestHistory_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	history := memstore.NewHistory(100)

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()
			history.Append(t.Context(), alerting.HistoryEntry{ID: fmt.Sprintf("e%d", n)})
		}(i)
	}

	wg.Wait()
	require.Len(t, history.List(t.Context()), 50)
}
