package recency_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MrigankDubey/My-Second-app/internal/recency"
)

func TestTracker_Window(t *testing.T) {
	t.Parallel()

	tr := makeTracker(t, 2)
	ctx := context.Background()

	require.NoError(t, tr.RecordSession(ctx, 1, []int64{1, 2, 3}))
	require.NoError(t, tr.RecordSession(ctx, 1, []int64{4, 5}))
	require.NoError(t, tr.RecordSession(ctx, 1, []int64{6}))

	got, err := tr.RecentQuestionIDs(ctx, 1)
	require.NoError(t, err)

	// Window of 2: the oldest session {1,2,3} fell out.
	require.Equal(t, map[int64]struct{}{4: {}, 5: {}, 6: {}}, got)
}

func TestTracker_UsersAreIndependent(t *testing.T) {
	t.Parallel()

	tr := makeTracker(t, 5)
	ctx := context.Background()

	require.NoError(t, tr.RecordSession(ctx, 1, []int64{10, 11}))
	require.NoError(t, tr.RecordSession(ctx, 2, []int64{20}))

	got1, err := tr.RecentQuestionIDs(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, map[int64]struct{}{10: {}, 11: {}}, got1)

	got2, err := tr.RecentQuestionIDs(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, map[int64]struct{}{20: {}}, got2)
}

func TestTracker_EmptyHistory(t *testing.T) {
	t.Parallel()

	tr := makeTracker(t, 5)

	got, err := tr.RecentQuestionIDs(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, got)
}

func makeTracker(t *testing.T, window int) *recency.Tracker {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return recency.NewTracker(recency.Config{
		Redis:  rc,
		Prefix: "vocab",
		Window: window,
	})
}
