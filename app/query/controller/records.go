package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/liftlab/rankx/pkg/leaderboard"
	"go.uber.org/zap"
)

// recordRequest is the payload pushed by the workout-save collaborator after
// its own transaction commits: workout-level deltas plus per-exercise deltas.
type recordRequest struct {
	Workout   leaderboard.WorkoutTotals            `json:"workout"`
	Exercises map[string]leaderboard.ExerciseTotals `json:"exercises"`
}

// RecordWorkout applies one workout save to the scores tables and mirrors the
// new cumulative values into the ranking sets. The user identity comes from
// the bearer token, never from the payload.
func (c *Controller) RecordWorkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, "invalid record payload")
		return
	}

	rec := leaderboard.WorkoutRecord{
		UserID:    requesterID(r),
		Workout:   req.Workout,
		Exercises: req.Exercises,
	}

	cums, err := c.App.Recorder.Record(ctx, rec)
	if err != nil {
		c.App.Logger.Error("Failed to record workout totals",
			zap.String("user_id", rec.UserID),
			zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
		return
	}

	_ = json.NewEncoder(w).Encode(cums)
}
