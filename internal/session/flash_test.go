package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ogctz/internal/shared/testutil"
)

func newClockedStore(ttl time.Duration) (*MemoryStore, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(ttl)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStore_TakeClears(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	require.NoError(t, s.Set(ctx, "a", Flash{Text: "hello", Category: CategorySuccess}))

	got, err := s.Take(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, CategorySuccess, got.Category)

	again, err := s.Take(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestMemoryStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	require.NoError(t, s.Set(ctx, "a", Flash{Text: "for a"}))

	other, err := s.Take(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, other)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_NewerFlashReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	require.NoError(t, s.Set(ctx, "a", Flash{Text: "first", Category: CategoryError}))
	require.NoError(t, s.Set(ctx, "a", Flash{Text: "second", Category: CategorySuccess}))

	got, err := s.Take(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Text)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, now := newClockedStore(time.Minute)

	require.NoError(t, s.Set(ctx, "a", Flash{Text: "stale"}))
	require.NoError(t, s.Set(ctx, "b", Flash{Text: "stale too"}))
	*now = now.Add(2 * time.Minute)
	require.NoError(t, s.Set(ctx, "c", Flash{Text: "fresh"}))

	got, err := s.Take(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	fresh, err := s.Take(ctx, "c")
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, "fresh", fresh.Text)
}

func TestMemoryStore_ConcurrentTake(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	require.NoError(t, s.Set(ctx, "a", Flash{Text: "once"}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		hits int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f, _ := s.Take(ctx, "a"); f != nil {
				mu.Lock()
				hits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, hits)
}

func TestMemoryStore_RunJanitor(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	require.NoError(t, s.Set(context.Background(), "a", Flash{Text: "x"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunJanitor(ctx, 5*time.Millisecond, testutil.DiscardLogger()) }()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
