package leaderboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Syncer populates ranking sets from the relational source. A set is trusted
// once its synced marker is present; without the marker the set is rebuilt
// wholesale (delete, bulk load, mark). Save-path upserts never write the
// marker, so a set seeded only by incremental writes still gets a full build
// on first read.
//
// Concurrent cold reads of the same set may rebuild it twice. The rebuilds
// are idempotent, so the race costs redundant work, not correctness.
type Syncer struct {
	Index  RankingIndex
	Source ScoreSource
	Logger *zap.Logger
}

func NewSyncer(index RankingIndex, source ScoreSource, logger *zap.Logger) *Syncer {
	return &Syncer{Index: index, Source: source, Logger: logger}
}

// EnsureOverall makes sure the overall set for metric is built, returning its key.
func (s *Syncer) EnsureOverall(ctx context.Context, metric Metric) (string, error) {
	column, err := OverallColumn(metric)
	if err != nil {
		return "", err
	}

	key := OverallKey(metric)
	return key, s.ensure(ctx, key, func(ctx context.Context) ([]Entry, error) {
		return s.Source.OverallScores(ctx, column)
	})
}

// EnsureExercise makes sure the per-exercise set for metric is built, returning its key.
func (s *Syncer) EnsureExercise(ctx context.Context, exerciseID string, metric Metric) (string, error) {
	column, err := ExerciseColumn(metric)
	if err != nil {
		return "", err
	}

	key := ExerciseKey(exerciseID, metric)
	return key, s.ensure(ctx, key, func(ctx context.Context) ([]Entry, error) {
		return s.Source.ExerciseScores(ctx, exerciseID, column)
	})
}

// RebuildOverall forces a full rebuild of the overall set for metric.
func (s *Syncer) RebuildOverall(ctx context.Context, metric Metric) error {
	column, err := OverallColumn(metric)
	if err != nil {
		return err
	}
	return s.rebuild(ctx, OverallKey(metric), func(ctx context.Context) ([]Entry, error) {
		return s.Source.OverallScores(ctx, column)
	})
}

// RebuildExercise forces a full rebuild of the per-exercise set for metric.
func (s *Syncer) RebuildExercise(ctx context.Context, exerciseID string, metric Metric) error {
	column, err := ExerciseColumn(metric)
	if err != nil {
		return err
	}
	return s.rebuild(ctx, ExerciseKey(exerciseID, metric), func(ctx context.Context) ([]Entry, error) {
		return s.Source.ExerciseScores(ctx, exerciseID, column)
	})
}

func (s *Syncer) ensure(ctx context.Context, key string, load func(context.Context) ([]Entry, error)) error {
	synced, err := s.Index.HasFlag(ctx, SyncedKey(key))
	if err != nil {
		return fmt.Errorf("check synced marker for %s: %w", key, err)
	}
	if synced {
		return nil
	}
	return s.rebuild(ctx, key, load)
}

func (s *Syncer) rebuild(ctx context.Context, key string, load func(context.Context) ([]Entry, error)) error {
	start := time.Now()

	// Drop the marker first: a failed rebuild must leave the set cold so the
	// next read retries from scratch.
	if err := s.Index.RemoveAll(ctx, SyncedKey(key), key); err != nil {
		return fmt.Errorf("clear %s before rebuild: %w", key, err)
	}

	entries, err := load(ctx)
	if err != nil {
		return fmt.Errorf("load scores for %s: %w", key, err)
	}

	for _, e := range entries {
		if err := s.Index.Upsert(ctx, key, e.Member, e.Score); err != nil {
			return fmt.Errorf("populate %s: %w", key, err)
		}
	}

	if err := s.Index.SetFlag(ctx, SyncedKey(key)); err != nil {
		return fmt.Errorf("mark %s synced: %w", key, err)
	}

	s.Logger.Info("Ranking set rebuilt",
		zap.String("key", key),
		zap.Int("members", len(entries)),
		zap.Duration("took", time.Since(start)))

	return nil
}
