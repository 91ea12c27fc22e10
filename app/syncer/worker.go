package syncer

import (
	"context"

	"github.com/liftlab/rankx/pkg/leaderboard"
	redisclient "github.com/liftlab/rankx/pkg/redis"
	"go.uber.org/zap"
)

// scoreWorkerGroup is the consumer group replaying score-change events into
// the ranking index. Events carry absolute cumulative scores, so redelivery
// is harmless.
const scoreWorkerGroup = "rankx-syncer"

// RunScoreWorker consumes the durable score-change stream and applies each
// event's scores to the ranking sets. Blocks until the context is cancelled.
func (a *App) RunScoreWorker(ctx context.Context) error {
	consumer, err := redisclient.NewStreamConsumer(a.Redis, redisclient.StreamConsumerConfig{
		Stream:   redisclient.StreamScores,
		Group:    scoreWorkerGroup,
		Consumer: consumerName(),
		Logger:   a.Logger,
	})
	if err != nil {
		return err
	}

	return consumer.Run(ctx, a.handleScoreEvent)
}

// handleScoreEvent applies one score-change event. Malformed events are
// acknowledged and dropped; upsert failures leave the message pending for
// redelivery.
func (a *App) handleScoreEvent(ctx context.Context, msg redisclient.Message) error {
	ev, err := redisclient.ParseScoreEvent(msg.Values)
	if err != nil {
		a.Logger.Warn("Dropping malformed score event",
			zap.String("id", msg.ID),
			zap.Error(err))
		return nil
	}

	for metric, value := range ev.Values {
		key := leaderboard.OverallKey(metric)
		if ev.Scope == leaderboard.ScopeExercise {
			key = leaderboard.ExerciseKey(ev.ExerciseID, metric)
		}
		if err := a.Ranking.Upsert(ctx, key, ev.UserID, value); err != nil {
			return err
		}
	}

	return nil
}
