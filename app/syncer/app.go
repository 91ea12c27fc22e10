package syncer

import (
	"context"
	"os"
	"time"

	"github.com/liftlab/rankx/pkg/db/scores"
	"github.com/liftlab/rankx/pkg/leaderboard"
	"github.com/liftlab/rankx/pkg/logging"
	redisclient "github.com/liftlab/rankx/pkg/redis"
	"github.com/liftlab/rankx/pkg/utils"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// App is the ranking maintenance daemon: it rebuilds every ranking set from
// the scores tables on a cron schedule, and consumes the durable score-change
// stream to keep sets current between rebuilds.
type App struct {
	ScoresDB *scores.DB
	Redis    *redisclient.Client
	Ranking  *redisclient.Ranking
	Syncer   *leaderboard.Syncer

	// Cron triggers full resyncs according to CronSpec.
	Cron     *cron.Cron
	CronSpec string

	Logger *zap.Logger
}

// Initialize initializes the App.
func Initialize(ctx context.Context) (*App, error) {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	scoresDb, scoresErr := scores.New(ctx, logger, "syncer")
	if scoresErr != nil {
		logger.Fatal("Unable to initialize scores database", zap.Error(scoresErr))
	}

	redisClient, redisErr := redisclient.NewClient(ctx, logger)
	if redisErr != nil {
		logger.Fatal("Unable to initialize Redis client", zap.Error(redisErr))
	}

	ranking := redisclient.NewRanking(redisClient)

	app := &App{
		ScoresDB: scoresDb,
		Redis:    redisClient,
		Ranking:  ranking,
		Syncer:   leaderboard.NewSyncer(ranking, scoresDb, logger),
		CronSpec: utils.Env("RESYNC_CRON", "0 0 */6 * * *"),
		Logger:   logger,
	}

	if err := app.SetupScheduler(ctx); err != nil {
		return nil, err
	}

	return app, nil
}

// SetupScheduler sets up the cron scheduler for full resyncs.
func (a *App) SetupScheduler(ctx context.Context) error {
	// Seconds field enabled, matching CronSpec.
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	_, err := a.Cron.AddFunc(a.CronSpec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		if err := a.ResyncAll(rctx); err != nil {
			a.Logger.Error("Full resync failed", zap.Error(err))
		}
	})

	return err
}

// Start runs the cron scheduler and the score-change worker until the
// context is cancelled.
func (a *App) Start(ctx context.Context) {
	a.Cron.Start()
	a.Logger.Info("Resync cron started", zap.String("cronSpec", a.CronSpec))

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := a.RunScoreWorker(ctx); err != nil && ctx.Err() == nil {
			a.Logger.Error("Score worker stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	cronCtx := a.Cron.Stop()
	<-cronCtx.Done()
	<-workerDone

	if err := a.ScoresDB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
	if err := a.Redis.Close(); err != nil {
		a.Logger.Error("Failed to close Redis connection", zap.Error(err))
	}
	a.Logger.Info("Syncer stopped")
}

// consumerName identifies this worker within the stream consumer group.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "syncer"
	}
	return host
}
