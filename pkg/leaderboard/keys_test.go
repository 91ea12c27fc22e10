package leaderboard_test

import (
	"testing"

	"github.com/liftlab/rankx/pkg/leaderboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverallKeyNames(t *testing.T) {
	// Key names are shared with external sync jobs; these are golden values.
	expected := map[leaderboard.Metric]string{
		leaderboard.MetricVolume:    "overall:volume:leaderboard",
		leaderboard.MetricSets:      "overall:sets:leaderboard",
		leaderboard.MetricReps:      "overall:reps:leaderboard",
		leaderboard.MetricExercises: "overall:exercises:leaderboard",
		leaderboard.MetricWorkouts:  "overall:workouts:leaderboard",
		leaderboard.MetricDuration:  "overall:duration:leaderboard",
	}

	require.Len(t, leaderboard.OverallMetrics(), len(expected))
	for metric, key := range expected {
		assert.Equal(t, key, leaderboard.OverallKey(metric))
	}
}

func TestExerciseKeyNames(t *testing.T) {
	assert.Equal(t, "exercise:ex-123:volume:leaderboard",
		leaderboard.ExerciseKey("ex-123", leaderboard.MetricVolume))
	assert.Equal(t, "exercise:ex-123:workouts:leaderboard",
		leaderboard.ExerciseKey("ex-123", leaderboard.MetricWorkouts))
}

func TestSyncedKey(t *testing.T) {
	assert.Equal(t, "overall:volume:leaderboard:synced",
		leaderboard.SyncedKey(leaderboard.OverallKey(leaderboard.MetricVolume)))
}

func TestOverallColumnMap(t *testing.T) {
	expected := map[leaderboard.Metric]string{
		leaderboard.MetricVolume:    "volume",
		leaderboard.MetricSets:      "num_sets",
		leaderboard.MetricReps:      "reps",
		leaderboard.MetricExercises: "num_exercises",
		leaderboard.MetricWorkouts:  "num_workouts",
		leaderboard.MetricDuration:  "duration_mins",
	}

	for metric, column := range expected {
		got, err := leaderboard.OverallColumn(metric)
		require.NoError(t, err)
		assert.Equal(t, column, got)
	}
}

func TestExerciseColumnMap(t *testing.T) {
	expected := map[leaderboard.Metric]string{
		leaderboard.MetricVolume:   "volume",
		leaderboard.MetricSets:     "num_sets",
		leaderboard.MetricReps:     "reps",
		leaderboard.MetricWorkouts: "num_workouts",
	}

	require.Len(t, leaderboard.ExerciseMetrics(), len(expected))
	for metric, column := range expected {
		got, err := leaderboard.ExerciseColumn(metric)
		require.NoError(t, err)
		assert.Equal(t, column, got)
	}
}

func TestUnknownMetricRejected(t *testing.T) {
	_, err := leaderboard.OverallColumn("bench-press")
	assert.ErrorIs(t, err, leaderboard.ErrUnknownMetric)

	// Valid overall metrics are not all valid exercise metrics.
	_, err = leaderboard.ExerciseColumn(leaderboard.MetricDuration)
	assert.ErrorIs(t, err, leaderboard.ErrUnknownMetric)

	_, err = leaderboard.ExerciseColumn(leaderboard.MetricExercises)
	assert.ErrorIs(t, err, leaderboard.ErrUnknownMetric)
}
