package scores

import (
	"context"
	"fmt"

	"github.com/liftlab/rankx/pkg/leaderboard"
)

// AddTotals commits one workout record: the overall row and every touched
// exercise row are updated inside a single transaction, so a failed save
// leaves no partial totals behind. Returns the resulting cumulative scores.
func (db *DB) AddTotals(ctx context.Context, rec leaderboard.WorkoutRecord) (*leaderboard.CumulativeTotals, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin totals transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cums := &leaderboard.CumulativeTotals{
		Exercises: make(map[string]leaderboard.ExerciseCumulative, len(rec.Exercises)),
	}

	overallQuery := `
		INSERT INTO overall_leaderboard
			(user_id, volume, num_sets, reps, num_exercises, num_workouts, duration_mins)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			volume = overall_leaderboard.volume + EXCLUDED.volume,
			num_sets = overall_leaderboard.num_sets + EXCLUDED.num_sets,
			reps = overall_leaderboard.reps + EXCLUDED.reps,
			num_exercises = overall_leaderboard.num_exercises + EXCLUDED.num_exercises,
			num_workouts = overall_leaderboard.num_workouts + 1,
			duration_mins = overall_leaderboard.duration_mins + EXCLUDED.duration_mins,
			last_updated = now()
		RETURNING volume, num_sets, reps, num_exercises, num_workouts, duration_mins
	`

	err = tx.QueryRow(ctx, overallQuery,
		rec.UserID,
		rec.Workout.Volume,
		rec.Workout.Sets,
		rec.Workout.Reps,
		rec.Workout.Exercises,
		rec.Workout.DurationMins,
	).Scan(
		&cums.Overall.Volume,
		&cums.Overall.Sets,
		&cums.Overall.Reps,
		&cums.Overall.Exercises,
		&cums.Overall.Workouts,
		&cums.Overall.DurationMins,
	)
	if err != nil {
		return nil, fmt.Errorf("update overall totals for %s: %w", rec.UserID, err)
	}

	exerciseQuery := `
		INSERT INTO exercises_leaderboard
			(user_id, exercise_id, volume, num_sets, reps, num_workouts)
		VALUES ($1, $2, $3, $4, $5, 1)
		ON CONFLICT (user_id, exercise_id) DO UPDATE SET
			volume = exercises_leaderboard.volume + EXCLUDED.volume,
			num_sets = exercises_leaderboard.num_sets + EXCLUDED.num_sets,
			reps = exercises_leaderboard.reps + EXCLUDED.reps,
			num_workouts = exercises_leaderboard.num_workouts + 1,
			last_updated = now()
		RETURNING volume, num_sets, reps, num_workouts
	`

	for exerciseID, totals := range rec.Exercises {
		var cum leaderboard.ExerciseCumulative
		err = tx.QueryRow(ctx, exerciseQuery,
			rec.UserID,
			exerciseID,
			totals.Volume,
			totals.Sets,
			totals.Reps,
		).Scan(&cum.Volume, &cum.Sets, &cum.Reps, &cum.Workouts)
		if err != nil {
			return nil, fmt.Errorf("update exercise totals for %s/%s: %w", rec.UserID, exerciseID, err)
		}
		cums.Exercises[exerciseID] = cum
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit totals transaction: %w", err)
	}

	return cums, nil
}
