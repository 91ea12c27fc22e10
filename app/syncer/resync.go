package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/liftlab/rankx/pkg/leaderboard"
	"github.com/liftlab/rankx/pkg/utils"
	"go.uber.org/zap"
)

// ResyncAll rebuilds every ranking set from the scores tables: the six
// overall sets first, then every exercise's sets on a bounded worker pool.
// Individual set failures are logged and counted; the run keeps going so one
// bad set cannot starve the rest.
func (a *App) ResyncAll(ctx context.Context) error {
	start := time.Now()
	var failed atomic.Int64

	for _, metric := range leaderboard.OverallMetrics() {
		if err := a.Syncer.RebuildOverall(ctx, metric); err != nil {
			failed.Add(1)
			a.Logger.Error("Failed to rebuild overall set",
				zap.String("metric", string(metric)),
				zap.Error(err))
		}
	}

	exerciseIDs, err := a.ScoresDB.ExerciseIDs(ctx)
	if err != nil {
		return fmt.Errorf("list exercises for resync: %w", err)
	}

	maxWorkers := utils.EnvInt("RESYNC_WORKERS", 8)
	pool := pond.NewPool(maxWorkers, pond.WithQueueSize(len(exerciseIDs)+1))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, exerciseID := range exerciseIDs {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			for _, metric := range leaderboard.ExerciseMetrics() {
				if err := a.Syncer.RebuildExercise(groupCtx, exerciseID, metric); err != nil {
					failed.Add(1)
					a.Logger.Error("Failed to rebuild exercise set",
						zap.String("exercise_id", exerciseID),
						zap.String("metric", string(metric)),
						zap.Error(err))
				}
			}
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		a.Logger.Warn("Resync worker group error", zap.Error(err))
	}

	a.Logger.Info("Full resync finished",
		zap.Int("exercises", len(exerciseIDs)),
		zap.Int64("failed_sets", failed.Load()),
		zap.Duration("took", time.Since(start)))

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("resync completed with %d failed sets", n)
	}
	return nil
}
