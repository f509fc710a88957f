package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"

	config "github.com/lookbook-tech/go-backend/internal/cfg"
	v1Http "github.com/lookbook-tech/go-backend/internal/delivery/v1/http"
	"github.com/lookbook-tech/go-backend/internal/infrastructure/analysis"
	"github.com/lookbook-tech/go-backend/internal/infrastructure/kafka"
	minioInfra "github.com/lookbook-tech/go-backend/internal/infrastructure/minio"
	s3Repo "github.com/lookbook-tech/go-backend/internal/repository/minio"
	"github.com/lookbook-tech/go-backend/internal/repository/pgdb"
	pgdbConv "github.com/lookbook-tech/go-backend/internal/repository/pgdb/converter/generated"
	qdrantRepo "github.com/lookbook-tech/go-backend/internal/repository/qdrant"
	"github.com/lookbook-tech/go-backend/internal/repository/redis"
	redisConv "github.com/lookbook-tech/go-backend/internal/repository/redis/converter/generated"
	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/clients"
	"github.com/lookbook-tech/go-backend/pkg/closer"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/lookbook-tech/go-backend/pkg/logger"
	"github.com/lookbook-tech/go-backend/pkg/postgres"
	"github.com/lookbook-tech/go-backend/pkg/tr"
)

// App собирает зависимости сервиса и управляет его жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv      *v1Http.Server
	outboxWorker *kafka.OutboxWorker
	imagesInfra  *minioInfra.MinioInfrastructure
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(2 * time.Second)

	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	prConv := pgdbConv.NewProductConverterImpl()
	outboxConv := pgdbConv.NewOutboxEventConverterImpl()
	infoConv := redisConv.NewProductInfoConverterImpl()

	productRepo := pgdb.NewProductRepo(db.Pool, prConv, cfg.Search)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)

	vectorIndex, err := initVectorIndex(log, cfg, productRepo, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName)
	minioCancel()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	imagesInfra := minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, log)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(redisCtx)
	redisCancel()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, infoConv, cfg.Redis, log)

	analysisClient := analysis.NewClient(cfg.Analysis, cfg.Search.VectorSize, log)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	outboxWorker := kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	txManager := tr.NewManager(db.Pool)

	productUC := usecase.NewProductUC(
		productRepo,
		vectorIndex,
		txManager,
		analysisClient,
		imagesInfra,
		outboxRepo,
		cacheRepo,
		log,
		cfg.Search,
	)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, cfg.Search, log)
	router.Init(productUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	return &App{
		cfg:          cfg,
		logger:       log,
		closer:       cl,
		httpSrv:      httpSrv,
		outboxWorker: outboxWorker,
		imagesInfra:  imagesInfra,
	}, nil
}

// Run запускает HTTP-сервер и outbox-воркер и блокируется до сигнала
// завершения или фатальной ошибки сервера.
func (a *App) Run() error {
	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.outboxWorker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	workerCancel()
	a.outboxWorker.Stop()
	a.logger.Infof("Outbox worker stopped")

	if err := a.imagesInfra.WaitForCleanup(shutdownCtx); err != nil {
		a.logger.Warnf("MinIO cleanup error: %v", err)
	}

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("resource shutdown: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(log logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		log.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(log); err != nil {
		log.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		log.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

// initVectorIndex выбирает реализацию векторного индекса по конфигурации.
// pgvector хранит вектор в той же таблице, что и товар; Qdrant держит его
// в отдельной коллекции, а карточки товаров дочитываются из PostgreSQL.
func initVectorIndex(
	log logger.Logger,
	cfg *config.Config,
	productRepo *pgdb.ProductRepo,
	cl *closer.Closer,
) (usecase.VectorIndex, error) {
	switch cfg.Search.Backend {
	case config.VectorBackendPgvector:
		return productRepo, nil

	case config.VectorBackendQdrant:
		qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = clients.EnsureCollection(ctx, qdrantClient, uint64(cfg.Search.VectorSize))
		cancel()
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		cl.Add(func(ctx context.Context) error {
			return qdrantClient.Client.Close()
		})

		log.Infof("vector index backend: qdrant, collection %s", cfg.Qdrant.QdrantCollectionName)
		return qdrantRepo.NewVectorIndex(qdrantClient.Client, productRepo, cfg.Qdrant, cfg.Search), nil

	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Search.Backend)
	}
}
