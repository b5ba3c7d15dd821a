package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trashtrackr/internal/geofence"
	"trashtrackr/internal/reports"
	"trashtrackr/internal/store"
)

func draft(types ...string) reports.Draft {
	return reports.Draft{
		Types:    types,
		Severity: reports.SeverityHigh,
		Location: geofence.Coordinate{Lat: 12.97, Lng: 77.59},
	}
}

func TestAddAssignsIDAndServerTimestamp(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return now })

	id, err := s.Add(context.Background(), draft("Plastic"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, now, doc.Data["createdAt"])
	assert.Equal(t, []any{"Plastic"}, doc.Data["types"])
}

func TestAllOrdersByCreatedAtDescNullsLast(t *testing.T) {
	ctx := context.Background()
	s := New()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	s.Put("old", map[string]any{"createdAt": t1})
	s.Put("pending", map[string]any{})
	s.Put("new", map[string]any{"createdAt": t2})

	docs, err := s.All(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"new", "old", "pending"}, ids)
}

func TestSyntheticAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	d := draft("Plastic")
	d.IsFake = true
	fakeID, err := s.Add(ctx, d)
	require.NoError(t, err)
	_, err = s.Add(ctx, draft("Glass"))
	require.NoError(t, err)

	fakes, err := s.Synthetic(ctx)
	require.NoError(t, err)
	require.Len(t, fakes, 1)
	assert.Equal(t, fakeID, fakes[0].ID)

	require.NoError(t, s.Delete(ctx, fakeID))
	assert.ErrorIs(t, s.Delete(ctx, fakeID), store.ErrNotFound)
	assert.Equal(t, 1, s.Len())
}

func TestSetTypes(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.Add(ctx, draft("Plastic", "Air Pollution"))
	require.NoError(t, err)

	require.NoError(t, s.SetTypes(ctx, id, []any{"Plastic", 5}))
	doc, _ := s.Get(id)
	assert.Equal(t, []any{"Plastic", 5}, doc.Data["types"])
	assert.Equal(t, "High", doc.Data["severity"], "other fields untouched")

	assert.ErrorIs(t, s.SetTypes(ctx, "missing", nil), store.ErrNotFound)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.Add(ctx, draft("Plastic"))
	require.NoError(t, err)

	docs, _ := s.All(ctx)
	docs[0].Data["types"].([]any)[0] = "Changed"
	docs[0].Data["severity"] = "Low"

	doc, _ := s.Get(id)
	assert.Equal(t, []any{"Plastic"}, doc.Data["types"])
	assert.Equal(t, "High", doc.Data["severity"])
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Add(ctx, draft("Plastic"))
	require.NoError(t, err)

	var mu sync.Mutex
	var sizes []int
	stop, err := s.Watch(ctx, func(docs []store.Document) {
		mu.Lock()
		sizes = append(sizes, len(docs))
		mu.Unlock()
	}, func(error) {})
	require.NoError(t, err)

	_, err = s.Add(ctx, draft("Glass"))
	require.NoError(t, err)

	stop()
	stop()
	_, err = s.Add(ctx, draft("Metal"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, sizes)
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New()

	var mu sync.Mutex
	calls := 0
	_, err := s.Watch(ctx, func([]store.Document) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, func(error) {})
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.listeners) == 0
	}, time.Second, 5*time.Millisecond)

	_, err = s.Add(context.Background(), draft("Glass"))
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestListenerDropsStaleSnapshots(t *testing.T) {
	var got []string
	l := &listener{fn: func(docs []store.Document) { got = append(got, docs[0].ID) }}

	l.deliver(2, []store.Document{{ID: "v2"}})
	l.deliver(0, []store.Document{{ID: "initial"}})
	l.deliver(1, []store.Document{{ID: "v1"}})
	l.deliver(3, []store.Document{{ID: "v3"}})

	assert.Equal(t, []string{"v2", "v3"}, got)
}

func TestWatchDeliveryIsSerialAndMonotonic(t *testing.T) {
	ctx := context.Background()
	s := New()

	const writers, perWriter = 8, 25
	start := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < perWriter; i++ {
				_, err := s.Add(ctx, draft("Plastic"))
				assert.NoError(t, err)
			}
		}()
	}

	// 回调内不加锁：同一监听的推送必须串行
	var sizes []int
	close(start)
	stop, err := s.Watch(ctx, func(docs []store.Document) { sizes = append(sizes, len(docs)) }, func(error) {})
	require.NoError(t, err)
	wg.Wait()
	stop()

	require.NotEmpty(t, sizes)
	for i := 1; i < len(sizes); i++ {
		assert.GreaterOrEqual(t, sizes[i], sizes[i-1], "snapshot %d arrived out of order", i)
	}
	assert.Equal(t, writers*perWriter, sizes[len(sizes)-1])
}
