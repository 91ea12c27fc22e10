package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/liftlab/rankx/pkg/leaderboard"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// StreamScores is the durable score-change stream consumed by the
	// ranking maintenance worker.
	StreamScores = "rankx:scores"

	// ChannelLeaderboardChanged carries lightweight change notifications for
	// live leaderboard subscribers.
	ChannelLeaderboardChanged = "rankx:leaderboard.changed"
)

// Ranking adapts Redis sorted sets to the leaderboard.RankingIndex contract
// and doubles as the score-change event sink.
type Ranking struct {
	client *Client
}

func NewRanking(client *Client) *Ranking {
	return &Ranking{client: client}
}

func (r *Ranking) Upsert(ctx context.Context, key, member string, score float64) error {
	return r.client.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (r *Ranking) RemoveAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.client.Del(ctx, keys...).Err()
}

func (r *Ranking) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (r *Ranking) Cardinality(ctx context.Context, key string) (int64, error) {
	return r.client.client.ZCard(ctx, key).Result()
}

func (r *Ranking) RankDesc(ctx context.Context, key, member string) (int64, bool, error) {
	rank, err := r.client.client.ZRevRank(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rank, true, nil
}

func (r *Ranking) RangeDesc(ctx context.Context, key string, start, stop int64) ([]leaderboard.Entry, error) {
	// Negative indexes mean from-the-end in Redis; the contract clamps instead.
	if start < 0 {
		start = 0
	}
	if stop < start {
		return nil, nil
	}

	zs, err := r.client.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	return toEntries(zs), nil
}

func (r *Ranking) RangeAll(ctx context.Context, key string) ([]leaderboard.Entry, error) {
	zs, err := r.client.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return toEntries(zs), nil
}

func (r *Ranking) SetFlag(ctx context.Context, key string) error {
	return r.client.client.Set(ctx, key, "1", 0).Err()
}

func (r *Ranking) HasFlag(ctx context.Context, key string) (bool, error) {
	n, err := r.client.client.Exists(ctx, key).Result()
	return n > 0, err
}

// EmitScoreChange appends the event to the durable score stream and notifies
// live subscribers. Best effort: failures are logged by the client wrapper.
func (r *Ranking) EmitScoreChange(ctx context.Context, ev leaderboard.ScoreEvent) {
	data, err := json.Marshal(ev.Values)
	if err != nil {
		r.client.logger.Warn("Failed to encode score event", zap.Error(err))
		return
	}

	r.client.XAdd(ctx, StreamScores, map[string]interface{}{
		"scope":       string(ev.Scope),
		"user_id":     ev.UserID,
		"exercise_id": ev.ExerciseID,
		"values":      string(data),
	})

	notice, err := json.Marshal(map[string]interface{}{
		"scope":       ev.Scope,
		"user_id":     ev.UserID,
		"exercise_id": ev.ExerciseID,
		"keys":        ev.Keys(),
	})
	if err != nil {
		r.client.logger.Warn("Failed to encode change notice", zap.Error(err))
		return
	}
	r.client.Publish(ctx, ChannelLeaderboardChanged, notice)
}

// ParseScoreEvent decodes a score-change stream entry.
func ParseScoreEvent(values map[string]interface{}) (leaderboard.ScoreEvent, error) {
	ev := leaderboard.ScoreEvent{
		Scope:      leaderboard.Scope(stringField(values, "scope")),
		UserID:     stringField(values, "user_id"),
		ExerciseID: stringField(values, "exercise_id"),
	}
	if ev.UserID == "" {
		return ev, fmt.Errorf("score event missing user_id")
	}

	raw := stringField(values, "values")
	if raw == "" {
		return ev, fmt.Errorf("score event missing values")
	}
	if err := json.Unmarshal([]byte(raw), &ev.Values); err != nil {
		return ev, fmt.Errorf("decode score event values: %w", err)
	}

	return ev, nil
}

func stringField(values map[string]interface{}, key string) string {
	switch v := values[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func toEntries(zs []redis.Z) []leaderboard.Entry {
	entries := make([]leaderboard.Entry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		entries = append(entries, leaderboard.Entry{Member: member, Score: z.Score})
	}
	return entries
}
