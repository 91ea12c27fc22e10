package leaderboard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/liftlab/rankx/pkg/leaderboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeSource is an in-memory stand-in for the scores tables.
type fakeSource struct {
	overall   map[string][]leaderboard.Entry            // column -> rows
	exercises map[string]map[string][]leaderboard.Entry // exercise -> column -> rows
	usernames map[string]string

	overallErr  error
	usernameErr error
	reads       int
}

func (f *fakeSource) OverallScores(_ context.Context, column string) ([]leaderboard.Entry, error) {
	f.reads++
	if f.overallErr != nil {
		return nil, f.overallErr
	}
	return f.overall[column], nil
}

func (f *fakeSource) ExerciseScores(_ context.Context, exerciseID, column string) ([]leaderboard.Entry, error) {
	f.reads++
	return f.exercises[exerciseID][column], nil
}

func (f *fakeSource) Username(_ context.Context, userID string) (string, error) {
	if f.usernameErr != nil {
		return "", f.usernameErr
	}
	return f.usernames[userID], nil
}

// countingIndex counts mutations so tests can assert on write activity.
type countingIndex struct {
	*leaderboard.MemoryIndex
	upserts int
	removes int
}

func (c *countingIndex) Upsert(ctx context.Context, key, member string, score float64) error {
	c.upserts++
	return c.MemoryIndex.Upsert(ctx, key, member, score)
}

func (c *countingIndex) RemoveAll(ctx context.Context, keys ...string) error {
	c.removes++
	return c.MemoryIndex.RemoveAll(ctx, keys...)
}

func TestEnsureOverallColdBuild(t *testing.T) {
	ctx := context.Background()
	idx := leaderboard.NewMemoryIndex()
	source := &fakeSource{
		overall: map[string][]leaderboard.Entry{
			"volume": {{Member: "u1", Score: 50}, {Member: "u2", Score: 75}},
		},
	}
	syncer := leaderboard.NewSyncer(idx, source, zaptest.NewLogger(t))

	key, err := syncer.EnsureOverall(ctx, leaderboard.MetricVolume)
	require.NoError(t, err)
	assert.Equal(t, "overall:volume:leaderboard", key)

	count, err := idx.Cardinality(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	rank, ok, err := idx.RankDesc(ctx, key, "u2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(0), rank)

	rank, ok, err = idx.RankDesc(ctx, key, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), rank)
}

func TestEnsureOverallIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := &countingIndex{MemoryIndex: leaderboard.NewMemoryIndex()}
	source := &fakeSource{
		overall: map[string][]leaderboard.Entry{
			"volume": {{Member: "u1", Score: 50}},
		},
	}
	syncer := leaderboard.NewSyncer(idx, source, zaptest.NewLogger(t))

	_, err := syncer.EnsureOverall(ctx, leaderboard.MetricVolume)
	require.NoError(t, err)

	upserts, removes, reads := idx.upserts, idx.removes, source.reads

	_, err = syncer.EnsureOverall(ctx, leaderboard.MetricVolume)
	require.NoError(t, err)

	// A built set is trusted: the second call performs zero writes and zero
	// source reads.
	assert.Equal(t, upserts, idx.upserts)
	assert.Equal(t, removes, idx.removes)
	assert.Equal(t, reads, source.reads)
}

func TestEnsureRebuildsIncrementallySeededSet(t *testing.T) {
	// A set created only by save-path upserts has no synced marker and may be
	// missing users who predate the cache. It must still get a full build.
	ctx := context.Background()
	idx := leaderboard.NewMemoryIndex()
	source := &fakeSource{
		overall: map[string][]leaderboard.Entry{
			"volume": {{Member: "old-user", Score: 900}, {Member: "new-user", Score: 10}},
		},
	}
	syncer := leaderboard.NewSyncer(idx, source, zaptest.NewLogger(t))

	key := leaderboard.OverallKey(leaderboard.MetricVolume)
	require.NoError(t, idx.Upsert(ctx, key, "new-user", 10))

	_, err := syncer.EnsureOverall(ctx, leaderboard.MetricVolume)
	require.NoError(t, err)

	count, err := idx.Cardinality(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, ok, err := idx.RankDesc(ctx, key, "old-user")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnsureSourceFailureLeavesSetCold(t *testing.T) {
	ctx := context.Background()
	idx := leaderboard.NewMemoryIndex()
	source := &fakeSource{
		overall:    map[string][]leaderboard.Entry{"volume": {{Member: "u1", Score: 50}}},
		overallErr: errors.New("connection refused"),
	}
	syncer := leaderboard.NewSyncer(idx, source, zaptest.NewLogger(t))

	_, err := syncer.EnsureOverall(ctx, leaderboard.MetricVolume)
	require.Error(t, err)

	// The marker was cleared before the failed load, so the next call
	// retries the build from scratch and succeeds.
	source.overallErr = nil
	key, err := syncer.EnsureOverall(ctx, leaderboard.MetricVolume)
	require.NoError(t, err)

	count, err := idx.Cardinality(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEnsureExerciseBuildsScopedSet(t *testing.T) {
	ctx := context.Background()
	idx := leaderboard.NewMemoryIndex()
	source := &fakeSource{
		exercises: map[string]map[string][]leaderboard.Entry{
			"squat": {"num_sets": {{Member: "u1", Score: 12}}},
			"bench": {"num_sets": {{Member: "u1", Score: 30}, {Member: "u2", Score: 5}}},
		},
	}
	syncer := leaderboard.NewSyncer(idx, source, zaptest.NewLogger(t))

	key, err := syncer.EnsureExercise(ctx, "bench", leaderboard.MetricSets)
	require.NoError(t, err)
	assert.Equal(t, "exercise:bench:sets:leaderboard", key)

	count, err := idx.Cardinality(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The squat set was not touched.
	count, err = idx.Cardinality(ctx, leaderboard.ExerciseKey("squat", leaderboard.MetricSets))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEnsureUnknownMetric(t *testing.T) {
	syncer := leaderboard.NewSyncer(leaderboard.NewMemoryIndex(), &fakeSource{}, zaptest.NewLogger(t))

	_, err := syncer.EnsureOverall(context.Background(), "squats-per-minute")
	assert.ErrorIs(t, err, leaderboard.ErrUnknownMetric)

	_, err = syncer.EnsureExercise(context.Background(), "bench", leaderboard.MetricDuration)
	assert.ErrorIs(t, err, leaderboard.ErrUnknownMetric)
}

func TestRebuildReplacesStaleMembers(t *testing.T) {
	ctx := context.Background()
	idx := leaderboard.NewMemoryIndex()
	source := &fakeSource{
		overall: map[string][]leaderboard.Entry{
			"volume": {{Member: "u1", Score: 50}},
		},
	}
	syncer := leaderboard.NewSyncer(idx, source, zaptest.NewLogger(t))

	key := leaderboard.OverallKey(leaderboard.MetricVolume)
	require.NoError(t, idx.Upsert(ctx, key, "deleted-user", 999))

	require.NoError(t, syncer.RebuildOverall(ctx, leaderboard.MetricVolume))

	_, ok, err := idx.RankDesc(ctx, key, "deleted-user")
	require.NoError(t, err)
	assert.False(t, ok, "rebuild must drop members no longer in the source")

	count, err := idx.Cardinality(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
