package controller

import (
	"net/http"

	"github.com/liftlab/rankx/app/query/types"
	"github.com/gorilla/mux"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)
	r.Handle("/ws", http.HandlerFunc(c.HandleWebSocket)).Methods(http.MethodGet)

	r.Handle("/leaderboard/overall/{metric}", c.RequireUser(http.HandlerFunc(c.LeaderboardOverall))).Methods(http.MethodGet)
	r.Handle("/leaderboard/exercise/{exercise_id}/{metric}", c.RequireUser(http.HandlerFunc(c.LeaderboardExercise))).Methods(http.MethodGet)

	// Collaborator-facing: the workout-save service pushes completed saves here.
	r.Handle("/internal/records/workout", c.RequireUser(http.HandlerFunc(c.RecordWorkout))).Methods(http.MethodPost)
	r.Handle("/internal/sync-state", http.HandlerFunc(c.HandleSyncState)).Methods(http.MethodGet)

	return r, nil
}
