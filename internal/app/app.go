package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	redisclient "github.com/proofcast/proofcast-backend/internal/clients/redis"
	"github.com/proofcast/proofcast-backend/internal/db"
	"github.com/proofcast/proofcast-backend/internal/handlers"
	"github.com/proofcast/proofcast-backend/internal/observability"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/platform/openai"
	"github.com/proofcast/proofcast-backend/internal/platform/vecstore"
	"github.com/proofcast/proofcast-backend/internal/server"
	"github.com/proofcast/proofcast-backend/internal/utils"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Repos    Repos
	Services Services
	Vec      vecstore.Store
	AI       openai.Client
	Bus      redisclient.InvalidationBus

	tracingShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracingShutdown, err := observability.InitTracing(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	theDB, err := openDatabase(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	vec, err := selectVectorStore(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	ai, err := openai.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init openai client: %w", err)
	}

	// The invalidation bus is optional: without redis, staleness is still
	// correct through the database; only remote cache warming is lost.
	var bus redisclient.InvalidationBus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		bus, err = redisclient.NewInvalidationBus(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init invalidation bus: %w", err)
		}
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, reposet, vec, ai, bus)

	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		EvidenceHandler:   handlers.NewEvidenceHandler(log, serviceset.Retrieval, serviceset.Assembler),
		SynthesisHandler:  handlers.NewSynthesisHandler(log, serviceset.Synthesis),
		ClusterHandler:    handlers.NewClusterHandler(log, reposet.Clusters, ai),
		CoverageHandler:   handlers.NewCoverageHandler(log, serviceset.Coverage),
		AnnotationHandler: handlers.NewAnnotationHandler(log, serviceset.Annotations),
	})

	return &App{
		Log:             log,
		DB:              theDB,
		Router:          router,
		Repos:           reposet,
		Services:        serviceset,
		Vec:             vec,
		AI:              ai,
		Bus:             bus,
		tracingShutdown: tracingShutdown,
	}, nil
}

func openDatabase(log *logger.Logger) (*gorm.DB, error) {
	var (
		svc *db.PostgresService
		err error
	)
	if strings.EqualFold(utils.GetEnv("DB_DRIVER", "postgres", log), "sqlite") {
		svc, err = db.NewSQLiteService(log, os.Getenv("SQLITE_DSN"))
	} else {
		svc, err = db.NewPostgresService(log)
	}
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return svc.DB(), nil
}

func (a *App) Run() error {
	addr := utils.GetEnv("HTTP_ADDR", ":8080", a.Log)
	a.Log.Info("Starting server", "addr", addr)
	return a.Router.Run(addr)
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.tracingShutdown != nil {
		_ = a.tracingShutdown(ctx)
	}
	a.Log.Sync()
}
