package scores

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/liftlab/rankx/pkg/leaderboard"
)

// scoreColumns is the allowlist of columns a ranking rebuild may select.
// Column names are interpolated into SQL, so anything outside this set is
// rejected up front.
var scoreColumns = map[string]bool{
	"volume":        true,
	"num_sets":      true,
	"reps":          true,
	"num_exercises": true,
	"num_workouts":  true,
	"duration_mins": true,
}

// OverallScores returns every (user id, column value) row of the overall
// scores table.
func (db *DB) OverallScores(ctx context.Context, column string) ([]leaderboard.Entry, error) {
	if !scoreColumns[column] {
		return nil, fmt.Errorf("unknown score column %q", column)
	}

	query := fmt.Sprintf(`SELECT user_id, %s::double precision FROM overall_leaderboard`, column)

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read overall scores: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ExerciseScores returns every (user id, column value) row for one exercise.
func (db *DB) ExerciseScores(ctx context.Context, exerciseID, column string) ([]leaderboard.Entry, error) {
	if !scoreColumns[column] {
		return nil, fmt.Errorf("unknown score column %q", column)
	}

	query := fmt.Sprintf(`SELECT user_id, %s::double precision FROM exercises_leaderboard WHERE exercise_id = $1`, column)

	rows, err := db.Pool.Query(ctx, query, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to read exercise scores: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Username resolves a display name; unknown users resolve to "".
func (db *DB) Username(ctx context.Context, userID string) (string, error) {
	var username string
	err := db.Pool.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve username for %s: %w", userID, err)
	}
	return username, nil
}

// ExerciseIDs returns every exercise with at least one recorded score. The
// full-resync job iterates this list.
func (db *DB) ExerciseIDs(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT DISTINCT exercise_id FROM exercises_leaderboard`)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEntries(rows pgx.Rows) ([]leaderboard.Entry, error) {
	var entries []leaderboard.Entry
	for rows.Next() {
		var e leaderboard.Entry
		if err := rows.Scan(&e.Member, &e.Score); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
