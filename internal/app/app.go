package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"

	config "github.com/softvape/shop-bot/internal/cfg"
	v1Http "github.com/softvape/shop-bot/internal/delivery/v1/http"
	"github.com/softvape/shop-bot/internal/delivery/v1/telegram"
	"github.com/softvape/shop-bot/internal/infrastructure/kafka"
	s3Repo "github.com/softvape/shop-bot/internal/repository/minio"
	"github.com/softvape/shop-bot/internal/repository/pgdb"
	pgdbConv "github.com/softvape/shop-bot/internal/repository/pgdb/converter"
	redisRepo "github.com/softvape/shop-bot/internal/repository/redis"
	"github.com/softvape/shop-bot/internal/usecase"
	"github.com/softvape/shop-bot/pkg/clients"
	"github.com/softvape/shop-bot/pkg/closer"
	"github.com/softvape/shop-bot/pkg/e"
	"github.com/softvape/shop-bot/pkg/logger"
	"github.com/softvape/shop-bot/pkg/postgres"
)

// Run собирает все зависимости, запускает бота и служебный HTTP-сервер
// и блокируется до сигнала остановки или фатальной ошибки.
func Run(cfg *config.Config, logger logger.Logger) error {
	cl := closer.New()

	db, err := initPGDB(logger, cfg)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(redisCtx)
	redisCancel()
	if err != nil {
		logger.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		logger.Errorf(err, "failed to initialize minio client")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName)
	minioCancel()
	if err != nil {
		logger.Errorf(err, "failed to initialize MinIO bucket")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	producer, err := kafka.NewProducer(logger, cfg.Kafka)
	if err != nil {
		logger.Errorf(err, "failed to initialize kafka producer")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		logger.Errorf(err, "failed to ensure kafka topic")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverter())
	orderRepo := pgdb.NewOrderRepo(db.Pool, pgdbConv.NewOrderConverter())
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverter())
	txManager := pgdb.NewTxManager(db.Pool)
	cartRepo := redisRepo.NewCartRepo(redisClient)
	sessionRepo := redisRepo.NewSessionRepo(redisClient, cfg.Redis)
	backupRepo := s3Repo.NewBackupRepo(minioClient, cfg.Minio)

	eventProducer := kafka.NewOutboxProducer(outboxRepo)

	pricer := usecase.NewPricer(logger)
	adminUC := usecase.NewAdminUC(productRepo, orderRepo, sessionRepo, backupRepo, eventProducer, txManager, cfg.Bot.AdminID, logger)
	sessionUC := usecase.NewSessionUC(productRepo, cartRepo, orderRepo, sessionRepo, eventProducer, txManager, pricer, adminUC, cfg.Bot.AdminID, logger)

	bot, err := telegram.NewBot(sessionUC, cfg.Bot, logger)
	if err != nil {
		logger.Errorf(err, "failed to initialize telegram bot")
		return e.Wrap(whereami.WhereAmI(), err)
	}

	health := v1Http.NewHealthHandler(logger)
	health.Register("postgres", func(ctx context.Context) error {
		return db.Pool.Ping(ctx)
	})
	health.Register("redis", redisClient.Ping)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(health)

	httpSrv := v1Http.NewServer(router.Handler(), cfg.Http)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxWorker := kafka.NewOutboxWorker(outboxRepo, producer, db.Dsn, logger)
	outboxWorker.Start(ctx)
	cl.Add(func(ctx context.Context) error {
		outboxWorker.Stop()
		return nil
	})

	botErrCh := make(chan error, 1)
	go func() {
		logger.Infof("telegram bot polling started")
		botErrCh <- bot.Run(ctx)
	}()

	httpErrCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(err, "HTTP server failed")
			httpErrCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-httpErrCh:
		logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-botErrCh:
		if appErr != nil {
			logger.Errorf(appErr, "telegram bot fatal error")
		}
	case <-shutdown:
		logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Errorf(err, "HTTP server shutdown error")
	} else {
		logger.Infof("HTTP server stopped")
	}

	if err := cl.Close(shutdownCtx); err != nil {
		logger.Warnf("shutdown cleanup error: %v", err)
	}

	logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
