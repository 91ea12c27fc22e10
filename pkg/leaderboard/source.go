package leaderboard

import "context"

// ScoreSource is the relational source of truth consumed by the ranking
// engine: cumulative score rows for cold rebuilds, and display-name lookups
// for leaderboard rows.
type ScoreSource interface {
	// OverallScores returns (user id, column value) for every row of the
	// overall scores table.
	OverallScores(ctx context.Context, column string) ([]Entry, error)

	// ExerciseScores returns (user id, column value) for every row of the
	// per-exercise scores table matching exerciseID.
	ExerciseScores(ctx context.Context, exerciseID, column string) ([]Entry, error)

	// Username resolves a display name. Returns "" with a nil error when the
	// user is unknown; leaderboard rows render unknown members blank instead
	// of failing the response.
	Username(ctx context.Context, userID string) (string, error)
}
