package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	appModeration "github.com/trustlocal/scamguard/pkg/app/moderation"
	"github.com/trustlocal/scamguard/pkg/app/training"
	"github.com/trustlocal/scamguard/pkg/cache"
	"github.com/trustlocal/scamguard/pkg/config"
	"github.com/trustlocal/scamguard/pkg/infra/artifact"
	infraCache "github.com/trustlocal/scamguard/pkg/infra/cache"
	"github.com/trustlocal/scamguard/pkg/infra/cache/channel"
	"github.com/trustlocal/scamguard/pkg/infra/cache/event"
	"github.com/trustlocal/scamguard/pkg/infra/cache/subscriber"
	"github.com/trustlocal/scamguard/pkg/infra/database"
	infraLogger "github.com/trustlocal/scamguard/pkg/infra/logger"
	"github.com/trustlocal/scamguard/pkg/infra/repository"
	"github.com/trustlocal/scamguard/pkg/moderation/rulefilter"
)

const (
	sweepInterval   = 24 * time.Hour
	retrainInterval = 7 * 24 * time.Hour
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	if err := config.Load("./config"); err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}
	cfg := config.GetConfig()

	db, err := database.NewDB(logger, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	defer func() { _ = db.Close() }()

	cacheInstance, err := cache.NewCache(cache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize redis")
	}
	defer func() { _ = cacheInstance.Close() }()

	store, err := artifact.NewFSStore(logger, cfg.Artifacts.Dir)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize artifact store")
	}

	ruleFilter, err := rulefilter.NewRuleFilter(logger, map[string]interface{}{
		"denylist": cfg.Moderation.Denylist,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize rule filter")
	}

	contentRepo := repository.NewContentRepository(db.DB)
	models := appModeration.NewHolder()
	moderator := appModeration.NewModerator(logger, ruleFilter, models)
	runner := appModeration.NewDailyRunner(logger, contentRepo, moderator, cfg.Moderation.Threshold)

	publisher := infraCache.NewRedisEventPublisher(cacheInstance, channel.ModerationEventsChannel)
	loader := training.NewDatasetLoader(logger, contentRepo, cfg.Training)
	pipeline := training.NewPipeline(logger, loader, store, models, publisher, cfg.Training)

	bootstrap := training.NewBootstrap(logger, store, models)
	result, err := bootstrap.Activate(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to bootstrap active model")
	}
	if result.NeedsInitialization() {
		logger.Info("starting without an active model, first retrain will publish one")
	}

	listener := infraCache.NewRedisEventListener(logger, cacheInstance, event.Registry)
	infraCache.RegisterEventSubscriber(listener,
		subscriber.NewModelPublishedEventSubscriber(logger, store, models))
	infraCache.RegisterEventSubscriber(listener,
		subscriber.NewDenylistUpdatedEventSubscriber(logger, ruleFilter))
	go listener.Listen(ctx, channel.ModerationEventsChannel)

	go runSchedule(ctx, logger, runner, pipeline)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")
	cancel()
}

// runSchedule drives the two cadences: a daily moderation sweep and a
// weekly retrain. The pipeline itself refuses overlapping runs.
func runSchedule(ctx context.Context, logger *logrus.Logger, runner *appModeration.DailyRunner, pipeline *training.Pipeline) {
	sweep := time.NewTicker(sweepInterval)
	retrain := time.NewTicker(retrainInterval)
	defer sweep.Stop()
	defer retrain.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			if _, err := runner.Run(ctx); err != nil {
				logger.WithError(err).Error("moderation sweep failed")
			}
		case <-retrain.C:
			if _, err := pipeline.Run(ctx); err != nil {
				logger.WithError(err).Error("retrain failed")
			}
		}
	}
}
