package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/liftlab/rankx/pkg/leaderboard"
	"go.uber.org/zap"
)

// LeaderboardOverall serves the windowed overall-scope leaderboard for a metric.
func (c *Controller) LeaderboardOverall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metric := leaderboard.Metric(mux.Vars(r)["metric"])

	spec, err := parseWindowSpec(r)
	if err != nil {
		writeClientError(w, err.Error())
		return
	}

	view, err := c.App.Leaderboard.Overall(ctx, metric, requesterID(r), spec.params())
	if err != nil {
		c.writeLeaderboardError(w, err, string(metric))
		return
	}

	c.App.LastServed.Store(leaderboard.OverallKey(metric), time.Now())
	_ = json.NewEncoder(w).Encode(map[string]*leaderboard.View{"leaderboard": view})
}

// LeaderboardExercise serves the windowed per-exercise leaderboard for a metric.
func (c *Controller) LeaderboardExercise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	exerciseID := vars["exercise_id"]
	metric := leaderboard.Metric(vars["metric"])

	spec, err := parseWindowSpec(r)
	if err != nil {
		writeClientError(w, err.Error())
		return
	}

	view, err := c.App.Leaderboard.Exercise(ctx, exerciseID, metric, requesterID(r), spec.params())
	if err != nil {
		c.writeLeaderboardError(w, err, string(metric))
		return
	}

	c.App.LastServed.Store(leaderboard.ExerciseKey(exerciseID, metric), time.Now())
	_ = json.NewEncoder(w).Encode(map[string]*leaderboard.View{"leaderboard": view})
}

// HandleSyncState reports when each ranking set was last served. Useful when
// checking whether the resync job and the read path agree on key names.
func (c *Controller) HandleSyncState(w http.ResponseWriter, _ *http.Request) {
	state := make(map[string]time.Time, c.App.LastServed.Size())
	c.App.LastServed.Range(func(key string, served time.Time) bool {
		state[key] = served
		return true
	})
	_ = json.NewEncoder(w).Encode(state)
}

func (c *Controller) writeLeaderboardError(w http.ResponseWriter, err error, metric string) {
	if errors.Is(err, leaderboard.ErrUnknownMetric) || errors.Is(err, leaderboard.ErrInvalidWindow) {
		writeClientError(w, err.Error())
		return
	}

	c.App.Logger.Error("Leaderboard request failed",
		zap.String("metric", metric),
		zap.Error(err))
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}

func writeClientError(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
