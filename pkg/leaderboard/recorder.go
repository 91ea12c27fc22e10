package leaderboard

import (
	"context"

	"go.uber.org/zap"
)

// WorkoutTotals are the per-workout deltas reported by the save path.
type WorkoutTotals struct {
	Volume       float64 `json:"volume"`
	Sets         int64   `json:"num_sets"`
	Reps         int64   `json:"reps"`
	Exercises    int64   `json:"num_exercises"`
	DurationMins float64 `json:"duration_mins"`
}

// ExerciseTotals are the per-workout deltas for one exercise.
type ExerciseTotals struct {
	Volume float64 `json:"volume"`
	Sets   int64   `json:"num_sets"`
	Reps   int64   `json:"reps"`
}

// OverallTotals are a user's cumulative overall-scope scores after a save.
type OverallTotals struct {
	Volume       float64 `json:"volume"`
	Sets         int64   `json:"num_sets"`
	Reps         int64   `json:"reps"`
	Exercises    int64   `json:"num_exercises"`
	Workouts     int64   `json:"num_workouts"`
	DurationMins float64 `json:"duration_mins"`
}

// ExerciseCumulative are a user's cumulative scores for one exercise.
type ExerciseCumulative struct {
	Volume   float64 `json:"volume"`
	Sets     int64   `json:"num_sets"`
	Reps     int64   `json:"reps"`
	Workouts int64   `json:"num_workouts"`
}

// WorkoutRecord is one completed workout save: the workout-level deltas plus
// the deltas for every exercise it contained.
type WorkoutRecord struct {
	UserID    string                    `json:"user_id"`
	Workout   WorkoutTotals             `json:"workout"`
	Exercises map[string]ExerciseTotals `json:"exercises"`
}

// CumulativeTotals is the post-save state of every score the record touched.
type CumulativeTotals struct {
	Overall   OverallTotals                 `json:"overall"`
	Exercises map[string]ExerciseCumulative `json:"exercises"`
}

// TotalsStore commits a workout record to the relational scores atomically
// and returns the resulting cumulative totals.
type TotalsStore interface {
	AddTotals(ctx context.Context, rec WorkoutRecord) (*CumulativeTotals, error)
}

// ScoreEvent describes a score change for one scope entity. Values carry
// absolute cumulative scores, so consumers can re-apply events idempotently.
type ScoreEvent struct {
	Scope      Scope
	UserID     string
	ExerciseID string
	Values     map[Metric]float64
}

// Keys returns the ranking set keys the event touches.
func (ev ScoreEvent) Keys() []string {
	keys := make([]string, 0, len(ev.Values))
	for metric := range ev.Values {
		switch ev.Scope {
		case ScopeExercise:
			keys = append(keys, ExerciseKey(ev.ExerciseID, metric))
		default:
			keys = append(keys, OverallKey(metric))
		}
	}
	return keys
}

// EventSink receives score-change events after the relational commit.
// Emission is best-effort at the call site; durable sinks give downstream
// consumers at-least-once delivery.
type EventSink interface {
	EmitScoreChange(ctx context.Context, ev ScoreEvent)
}

// Recorder is the sync-on-write path: commit the relational totals, mirror
// the new cumulative scores into the ranking index, and emit change events.
// Index and event writes after the commit are not covered by the relational
// transaction; their failures are logged and the cache stays stale until the
// event is replayed or the next full resync.
type Recorder struct {
	Store  TotalsStore
	Index  RankingIndex
	Events EventSink
	Logger *zap.Logger
}

func NewRecorder(store TotalsStore, index RankingIndex, events EventSink, logger *zap.Logger) *Recorder {
	return &Recorder{Store: store, Index: index, Events: events, Logger: logger}
}

// Record applies one workout save end to end.
func (r *Recorder) Record(ctx context.Context, rec WorkoutRecord) (*CumulativeTotals, error) {
	cums, err := r.Store.AddTotals(ctx, rec)
	if err != nil {
		return nil, err
	}

	r.apply(ctx, ScoreEvent{
		Scope:  ScopeOverall,
		UserID: rec.UserID,
		Values: OverallScoreValues(cums.Overall),
	})

	for exerciseID, totals := range cums.Exercises {
		r.apply(ctx, ScoreEvent{
			Scope:      ScopeExercise,
			UserID:     rec.UserID,
			ExerciseID: exerciseID,
			Values:     ExerciseScoreValues(totals),
		})
	}

	return cums, nil
}

// apply upserts the event's scores into the ranking index and forwards the
// event to the sink.
func (r *Recorder) apply(ctx context.Context, ev ScoreEvent) {
	for metric, value := range ev.Values {
		key := OverallKey(metric)
		if ev.Scope == ScopeExercise {
			key = ExerciseKey(ev.ExerciseID, metric)
		}
		if err := r.Index.Upsert(ctx, key, ev.UserID, value); err != nil {
			r.Logger.Warn("Failed to upsert ranking score",
				zap.String("key", key),
				zap.String("user_id", ev.UserID),
				zap.Error(err))
		}
	}

	if r.Events != nil {
		r.Events.EmitScoreChange(ctx, ev)
	}
}

// OverallScoreValues maps cumulative overall totals onto overall metrics.
func OverallScoreValues(t OverallTotals) map[Metric]float64 {
	return map[Metric]float64{
		MetricVolume:    t.Volume,
		MetricSets:      float64(t.Sets),
		MetricReps:      float64(t.Reps),
		MetricExercises: float64(t.Exercises),
		MetricWorkouts:  float64(t.Workouts),
		MetricDuration:  t.DurationMins,
	}
}

// ExerciseScoreValues maps cumulative exercise totals onto exercise metrics.
func ExerciseScoreValues(t ExerciseCumulative) map[Metric]float64 {
	return map[Metric]float64{
		MetricVolume:   t.Volume,
		MetricSets:     float64(t.Sets),
		MetricReps:     float64(t.Reps),
		MetricWorkouts: float64(t.Workouts),
	}
}
