package reportcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/kenaz-focus/internal/kvstore"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

type payload struct {
	Summary string `json:"summary"`
}

func newCache(t *testing.T) (*Cache, *fakeClock, kvstore.Store) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)}
	store := kvstore.NewMemory()
	return New(store, WithClock(clock.Now)), clock, store
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCache(t)

	require.NoError(t, c.Save(ctx, "report", payload{Summary: "hi"}))

	var got payload
	ok, err := c.Load(ctx, "report", time.Hour, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi", got.Summary)
}

func TestIsValid_Boundary(t *testing.T) {
	ctx := context.Background()
	c, clock, _ := newCache(t)
	const refresh = 24 * time.Hour

	require.NoError(t, c.Save(ctx, "report", payload{}))

	clock.Advance(refresh - time.Second)
	ok, err := c.IsValid(ctx, "report", refresh)
	require.NoError(t, err)
	assert.True(t, ok, "valid at T+R-1")

	clock.Advance(time.Second)
	ok, _ = c.IsValid(ctx, "report", refresh)
	assert.True(t, ok, "valid at exactly T+R")

	clock.Advance(time.Second)
	ok, _ = c.IsValid(ctx, "report", refresh)
	assert.False(t, ok, "stale at T+R+1")
}

func TestLoad_StaleIsAbsentButKept(t *testing.T) {
	ctx := context.Background()
	c, clock, store := newCache(t)

	require.NoError(t, c.Save(ctx, "report", payload{Summary: "old"}))
	clock.Advance(2 * time.Hour)

	var got payload
	ok, err := c.Load(ctx, "report", time.Hour, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	_, present, _ := store.Get(ctx, "report")
	assert.True(t, present, "stale entry must not be evicted")

	ok, err = c.Load(ctx, "report", NoMaxAge, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "old", got.Summary)
}

func TestLoad_Missing(t *testing.T) {
	c, _, _ := newCache(t)
	var got payload
	ok, err := c.Load(context.Background(), "nothing", time.Hour, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	c, clock, store := newCache(t)
	require.NoError(t, store.Put(ctx, map[string]kvstore.Record{"report": {Value: []byte("{not json"), WrittenAt: clock.Now()}}))

	var got payload
	ok, err := c.Load(ctx, "report", time.Hour, &got)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestSaveWithFingerprint_WritesBoth(t *testing.T) {
	ctx := context.Background()
	c, clock, _ := newCache(t)

	require.NoError(t, c.SaveWithFingerprint(ctx, "report", payload{Summary: "x"}, "report.fp", "abc"))

	fp, err := c.Fingerprint(ctx, "report.fp")
	require.NoError(t, err)
	assert.Equal(t, "abc", fp)

	at, ok, err := c.UpdatedAt(ctx, "report")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(clock.Now()))
}

func TestClear_RemovesValueAndTimestamp(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCache(t)
	require.NoError(t, c.SaveWithFingerprint(ctx, "report", payload{}, "report.fp", "abc"))

	require.NoError(t, c.Clear(ctx, "report", "report.fp"))

	_, ok, _ := c.UpdatedAt(ctx, "report")
	assert.False(t, ok)
	fp, _ := c.Fingerprint(ctx, "report.fp")
	assert.Empty(t, fp)
	valid, _ := c.IsValid(ctx, "report", NoMaxAge)
	assert.False(t, valid)
}
