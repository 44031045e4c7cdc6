package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/store"
)

func hour(h int) time.Time {
	return time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC)
}

func TestBookingStore_CreateRoundTripKeepsInstants(t *testing.T) {
	s := NewBookingStore()
	ctx := context.Background()

	iv := domain.NewInterval(hour(10), hour(11))
	b, err := s.Create(ctx, "alice", iv, "standup")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, uuid.Version(7), b.ID.Version())
	assert.False(t, b.CreatedAt.IsZero())

	got, err := s.Get(ctx, "alice", b.ID)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(hour(10)))
	assert.True(t, got.EndTime.Equal(hour(11)))
	assert.Equal(t, "standup", got.Title)
}

func TestBookingStore_CreateRejectsInvalidRange(t *testing.T) {
	s := NewBookingStore()

	_, err := s.Create(context.Background(), "alice", domain.NewInterval(hour(11), hour(11)), "x")
	assert.ErrorIs(t, err, store.ErrInvalidRange)

	_, err = s.Create(context.Background(), "alice", domain.NewInterval(hour(11), hour(10)), "x")
	assert.ErrorIs(t, err, store.ErrInvalidRange)
}

func TestBookingStore_OverlapRules(t *testing.T) {
	s := NewBookingStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", domain.NewInterval(hour(10), hour(12)), "a")
	require.NoError(t, err)

	_, err = s.Create(ctx, "alice", domain.NewInterval(hour(11), hour(13)), "partial")
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Create(ctx, "alice", domain.NewInterval(hour(9), hour(14)), "containing")
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Create(ctx, "alice", domain.NewInterval(hour(12), hour(13)), "adjacent")
	assert.NoError(t, err)

	_, err = s.Create(ctx, "bob", domain.NewInterval(hour(10), hour(12)), "other owner")
	assert.NoError(t, err)

	hits, err := s.Overlapping(ctx, "alice", domain.NewInterval(hour(11), hour(12).Add(30*time.Minute)))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.True(t, hits[0].StartTime.Equal(hour(10)))
	assert.True(t, hits[1].StartTime.Equal(hour(12)))
}

func TestBookingStore_ConcurrentOverlappingCreatesAdmitOne(t *testing.T) {
	s := NewBookingStore()
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			iv := domain.NewInterval(hour(10).Add(time.Duration(i)*time.Minute), hour(11))
			_, err := s.Create(ctx, "alice", iv, "race")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, store.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)

	list, err := s.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBookingStore_ListOrderedByStart(t *testing.T) {
	s := NewBookingStore()
	ctx := context.Background()

	for _, h := range []int{15, 9, 12} {
		_, err := s.Create(ctx, "alice", domain.NewInterval(hour(h), hour(h+1)), "b")
		require.NoError(t, err)
	}

	list, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].StartTime.Equal(hour(9)))
	assert.True(t, list[1].StartTime.Equal(hour(12)))
	assert.True(t, list[2].StartTime.Equal(hour(15)))

	empty, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBookingStore_GetAndDeleteEnforceOwner(t *testing.T) {
	s := NewBookingStore()
	ctx := context.Background()

	b, err := s.Create(ctx, "alice", domain.NewInterval(hour(10), hour(11)), "mine")
	require.NoError(t, err)

	_, err = s.Get(ctx, "mallory", b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Delete(ctx, "mallory", b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := s.Delete(ctx, "alice", b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, deleted.ID)

	_, err = s.Get(ctx, "alice", b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Create(ctx, "alice", domain.NewInterval(hour(10), hour(11)), "again")
	assert.NoError(t, err)
}
