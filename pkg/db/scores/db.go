package scores

import (
	"context"
	"fmt"
	"sync"

	"github.com/liftlab/rankx/pkg/db/postgres"
	"go.uber.org/zap"
)

// DB is the relational score store: cumulative overall and per-exercise
// totals plus the users lookup the leaderboard engine resolves display
// names from.
type DB struct {
	postgres.Client
}

// New connects to Postgres and ensures the score tables exist.
func New(ctx context.Context, logger *zap.Logger, component string) (*DB, error) {
	client, err := postgres.New(ctx, logger.With(zap.String("component", component)), postgres.DefaultPoolConfig(component))
	if err != nil {
		return nil, err
	}

	db := &DB{Client: client}
	if err := db.InitializeDB(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// InitializeDB ensures the required tables exist. Tables are created in
// parallel; the first failure wins.
func (db *DB) InitializeDB(ctx context.Context) error {
	initOps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", db.initUsers},
		{"overall_leaderboard", db.initOverallLeaderboard},
		{"exercises_leaderboard", db.initExercisesLeaderboard},
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(initOps))

	for _, op := range initOps {
		wg.Add(1)
		go func(name string, fn func(context.Context) error) {
			defer wg.Done()
			db.Logger.Debug("Initializing table", zap.String("table", name))
			if err := fn(ctx); err != nil {
				errChan <- fmt.Errorf("init %s: %w", name, err)
			}
		}(op.name, op.fn)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) initUsers(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT ''
		);
	`
	return db.Exec(ctx, query)
}

func (db *DB) initOverallLeaderboard(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS overall_leaderboard (
			user_id TEXT PRIMARY KEY,
			volume DOUBLE PRECISION NOT NULL DEFAULT 0,
			num_sets BIGINT NOT NULL DEFAULT 0,
			reps BIGINT NOT NULL DEFAULT 0,
			num_exercises BIGINT NOT NULL DEFAULT 0,
			num_workouts BIGINT NOT NULL DEFAULT 0,
			duration_mins DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);
	`
	return db.Exec(ctx, query)
}

func (db *DB) initExercisesLeaderboard(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS exercises_leaderboard (
			user_id TEXT NOT NULL,
			exercise_id TEXT NOT NULL,
			volume DOUBLE PRECISION NOT NULL DEFAULT 0,
			num_sets BIGINT NOT NULL DEFAULT 0,
			reps BIGINT NOT NULL DEFAULT 0,
			num_workouts BIGINT NOT NULL DEFAULT 0,
			last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, exercise_id)
		);

		CREATE INDEX IF NOT EXISTS idx_exercises_leaderboard_exercise ON exercises_leaderboard(exercise_id);
	`
	return db.Exec(ctx, query)
}
