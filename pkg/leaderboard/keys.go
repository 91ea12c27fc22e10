package leaderboard

import (
	"fmt"
)

// Scope is the ranking namespace: one set per user metric (overall) or per
// user+exercise metric (exercise).
type Scope string

const (
	ScopeOverall  Scope = "overall"
	ScopeExercise Scope = "exercise"
)

// Metric is a named cumulative quantity tracked within a scope.
type Metric string

const (
	MetricVolume    Metric = "volume"
	MetricSets      Metric = "sets"
	MetricReps      Metric = "reps"
	MetricExercises Metric = "exercises"
	MetricWorkouts  Metric = "workouts"
	MetricDuration  Metric = "duration"
)

// Metric to source-column maps. These are the read-only collaborator contract
// with the scores schema and must stay in sync with any external resync jobs.
var (
	overallColumns = map[Metric]string{
		MetricVolume:    "volume",
		MetricSets:      "num_sets",
		MetricReps:      "reps",
		MetricExercises: "num_exercises",
		MetricWorkouts:  "num_workouts",
		MetricDuration:  "duration_mins",
	}

	exerciseColumns = map[Metric]string{
		MetricVolume:   "volume",
		MetricSets:     "num_sets",
		MetricReps:     "reps",
		MetricWorkouts: "num_workouts",
	}
)

// OverallMetrics returns the metrics tracked in the overall scope, in a
// stable order.
func OverallMetrics() []Metric {
	return []Metric{MetricVolume, MetricSets, MetricReps, MetricExercises, MetricWorkouts, MetricDuration}
}

// ExerciseMetrics returns the metrics tracked per exercise, in a stable order.
func ExerciseMetrics() []Metric {
	return []Metric{MetricVolume, MetricSets, MetricReps, MetricWorkouts}
}

// OverallColumn maps an overall-scope metric to its source column.
func OverallColumn(m Metric) (string, error) {
	col, ok := overallColumns[m]
	if !ok {
		return "", fmt.Errorf("%w: %q is not an overall metric", ErrUnknownMetric, m)
	}
	return col, nil
}

// ExerciseColumn maps an exercise-scope metric to its source column.
func ExerciseColumn(m Metric) (string, error) {
	col, ok := exerciseColumns[m]
	if !ok {
		return "", fmt.Errorf("%w: %q is not an exercise metric", ErrUnknownMetric, m)
	}
	return col, nil
}

// OverallKey returns the ranking set key for an overall-scope metric.
// The format is shared with external sync jobs and must not change.
func OverallKey(m Metric) string {
	return fmt.Sprintf("overall:%s:leaderboard", m)
}

// ExerciseKey returns the ranking set key for an exercise-scope metric.
func ExerciseKey(exerciseID string, m Metric) string {
	return fmt.Sprintf("exercise:%s:%s:leaderboard", exerciseID, m)
}

// SyncedKey returns the marker key recording that a set was fully built from
// the relational source. A set that exists without its marker was created by
// incremental save-path upserts only and still needs a cold rebuild.
func SyncedKey(setKey string) string {
	return setKey + ":synced"
}
