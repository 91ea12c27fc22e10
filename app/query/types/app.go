package types

import (
	"context"
	"net/http"
	"time"

	"github.com/liftlab/rankx/pkg/db/scores"
	"github.com/liftlab/rankx/pkg/leaderboard"
	redisclient "github.com/liftlab/rankx/pkg/redis"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

type App struct {
	ScoresDB *scores.DB
	Redis    *redisclient.Client

	// Leaderboard answers windowed ranking reads; Recorder is the
	// sync-on-write path driven by the workout-save collaborator.
	Leaderboard *leaderboard.Service
	Recorder    *leaderboard.Recorder

	// LastServed tracks when each ranking set was last read, for the
	// sync-state endpoint.
	LastServed *xsync.Map[string, time.Time]

	// JWTSecret verifies the bearer tokens carrying the requester identity.
	JWTSecret []byte

	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests.
	Server *http.Server
}

// Start starts the application and blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.ScoresDB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	if err := a.Redis.Close(); err != nil {
		a.Logger.Error("Failed to close Redis connection", zap.Error(err))
	}

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("Query app stopped")
}
