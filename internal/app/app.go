package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/catalog-sync/internal/cfg"
	v1Http "github.com/DRSN-tech/catalog-sync/internal/delivery/v1/http"
	catalogInfra "github.com/DRSN-tech/catalog-sync/internal/infrastructure/catalog"
	kafkaInfra "github.com/DRSN-tech/catalog-sync/internal/infrastructure/kafka"
	recordsInfra "github.com/DRSN-tech/catalog-sync/internal/infrastructure/records"
	"github.com/DRSN-tech/catalog-sync/internal/queue"
	"github.com/DRSN-tech/catalog-sync/internal/repository/pgdb"
	redisRepo "github.com/DRSN-tech/catalog-sync/internal/repository/redis"
	"github.com/DRSN-tech/catalog-sync/internal/tracker"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/internal/worker"
	"github.com/DRSN-tech/catalog-sync/pkg/clients"
	"github.com/DRSN-tech/catalog-sync/pkg/closer"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/DRSN-tech/catalog-sync/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App собирает движок синхронизации: хранилища, клиенты внешних API,
// очереди, воркеры и HTTP-сервер.
type App struct {
	cfg    *config.Config
	logger logger.Logger
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	return &App{cfg: cfg, logger: logger}, nil
}

// Run запускает приложение и блокируется до сигнала остановки
// или фатальной ошибки сервера.
func (a *App) Run() error {
	log := a.logger
	cfg := a.cfg

	// Контекст приложения: его отмена останавливает воркеры и фоновые обходы.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	cl := closer.NewCloser(0)

	db, err := initPGDB(log, cfg)
	if err != nil {
		log.Errorf(err, "failed to initialize database")
		return err
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
		log.Errorf(err, "failed to connect to redis")
		return err
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})

	linkRepo := pgdb.NewLinkRepo(db.Pool)
	termCache := redisRepo.NewTermCacheRepo(redisClient, cfg.Redis, log)

	recordsClient := recordsInfra.NewClient(cfg.Records, log)
	catalogClient := catalogInfra.NewClient(cfg.Catalog, log)
	assets := catalogInfra.NewAssetService(catalogClient, termCache, log)

	if cfg.Records.WebhookSecret == "" {
		log.Warnf("RECORDS_WEBHOOK_SECRET is empty, records webhook signature check disabled")
	}
	if cfg.Catalog.WebhookSecret == "" {
		log.Warnf("CATALOG_WEBHOOK_SECRET is empty, catalog webhook signature check disabled")
	}

	var deadLetter usecase.DeadLetterProducer
	if cfg.Kafka != nil {
		producer, err := kafkaInfra.NewDeadLetterProducer(log, cfg.Kafka)
		if err != nil {
			log.Errorf(err, "failed to initialize kafka producer")
			return err
		}
		if err := producer.EnsureTopic(10 * time.Second); err != nil {
			log.Errorf(err, "failed to ensure dead-letter topic")
			return err
		}
		cl.Add(func(ctx context.Context) error {
			return producer.Close()
		})

		deadLetter = producer
		log.Infof("dead-letter producer enabled: topic=%s", cfg.Kafka.DeadLetterTopic)
	}

	trk := tracker.New(cfg.Sync.TrackerTTL)
	recordsQueue := queue.New()
	catalogQueue := queue.New()

	syncUC := usecase.NewSyncUC(
		recordsClient,
		catalogClient,
		assets,
		linkRepo,
		trk,
		recordsQueue,
		catalogQueue,
		cfg.Sync,
		log,
	)

	recordsWorker := worker.NewReconcileWorker("records", recordsQueue, syncUC, deadLetter, log)
	catalogWorker := worker.NewReconcileWorker("catalog", catalogQueue, syncUC, deadLetter, log)
	recordsWorker.Start(appCtx)
	catalogWorker.Start(appCtx)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(appCtx, syncUC, cfg.Records, cfg.Catalog, recordsQueue, catalogQueue)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		log.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		log.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Сначала перестаём принимать webhook-и, затем гасим воркеры. События,
	// оставшиеся в очередях, отбрасываются — их доберёт следующая полная
	// синхронизация; глубина очередей на момент остановки логируется ниже.
	if err := httpSrv.Stop(shutdownCtx); err != nil {
		log.Errorf(err, "HTTP server shutdown error")
	} else {
		log.Infof("HTTP server stopped")
	}

	appCancel()
	recordsWorker.Wait()
	catalogWorker.Wait()
	log.Infof("workers stopped: records_queue_depth=%d catalog_queue_depth=%d",
		recordsQueue.Depth(), catalogQueue.Depth())

	if err := cl.Close(shutdownCtx); err != nil {
		log.Warnf("resource shutdown: %v", err)
	}

	log.Infof("Application shutdown complete")
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
