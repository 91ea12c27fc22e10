package query

import (
	"context"
	"time"

	"github.com/liftlab/rankx/app/query/types"
	"github.com/liftlab/rankx/pkg/db/scores"
	"github.com/liftlab/rankx/pkg/leaderboard"
	"github.com/liftlab/rankx/pkg/logging"
	redisclient "github.com/liftlab/rankx/pkg/redis"
	"github.com/liftlab/rankx/pkg/utils"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	scoresDb, scoresErr := scores.New(ctx, logger, "query")
	if scoresErr != nil {
		logger.Fatal("Unable to initialize scores database", zap.Error(scoresErr))
	}

	redisClient, redisErr := redisclient.NewClient(ctx, logger)
	if redisErr != nil {
		logger.Fatal("Unable to initialize Redis client", zap.Error(redisErr))
	}

	ranking := redisclient.NewRanking(redisClient)

	secret := utils.Env("JWT_SECRET", "")
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = "rankx-dev-secret"
	}

	app := &types.App{
		ScoresDB:    scoresDb,
		Redis:       redisClient,
		Leaderboard: leaderboard.NewService(ranking, scoresDb, logger),
		Recorder:    leaderboard.NewRecorder(scoresDb, ranking, ranking, logger),
		LastServed:  xsync.NewMap[string, time.Time](),
		JWTSecret:   []byte(secret),
		Logger:      logger,
	}

	return app
}
