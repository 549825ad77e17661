package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"helpdesk/internal/config"
	"helpdesk/internal/predictor"
	"helpdesk/internal/services"
	"helpdesk/internal/store"
	"helpdesk/internal/store/artifact"
	"helpdesk/internal/store/primary"
	"helpdesk/internal/store/sqlite"
)

type App struct {
	Config *config.Config

	TicketStore   store.TicketStore
	ArtifactStore store.ArtifactStore
	JobClient     store.JobClient // nil when redis.address is unset

	Predictor *predictor.Predictor

	// --- Initialized Services ---
	PredictionService     *services.PredictionService
	CategorizationService *services.CategorizationService
}

// NewApp builds every component from cfg. When models.train_on_startup is
// set, models are loaded or trained before NewApp returns.
func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	app := &App{Config: cfg}

	if err := app.initTicketStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initArtifactStore(ctx); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	if err := app.initJobClient(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	app.initPredictor()
	app.initServices()

	if cfg.Models.TrainOnStartup {
		if err := app.Predictor.EnsureReady(ctx); err != nil {
			// predictions degrade to defaults until a retrain succeeds
			log.WithError(err).Error("models could not be loaded or trained at startup")
		}
	}

	log.Info("Application initialization complete.")
	return app, nil
}

// Close releases the store and job client.
func (a *App) Close() error {
	var errs []error
	if a.JobClient != nil {
		errs = append(errs, a.JobClient.Close())
	}
	if a.TicketStore != nil {
		errs = append(errs, a.TicketStore.Close())
	}
	return errors.Join(errs...)
}

// --- Private Helper Methods ---

func (a *App) initTicketStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Database.Driver {
	case "postgres":
		ps, err := primary.NewPrimaryStore(ctx, cfg.Database.Primary.DSN)
		if err != nil {
			return fmt.Errorf("init postgres store: %w", err)
		}
		a.TicketStore = ps
	case "sqlite":
		dsn := cfg.Database.Primary.DSN
		if !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		ss, err := sqlite.NewSQLiteStore(ctx, dsn)
		if err != nil {
			return fmt.Errorf("init sqlite store: %w", err)
		}
		if err := ss.EnsureSchema(ctx); err != nil {
			ss.Close()
			return fmt.Errorf("init sqlite store: %w", err)
		}
		a.TicketStore = ss
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return nil
}

func (a *App) initArtifactStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Models.Backend {
	case "filesystem":
		fs, err := artifact.NewFileStore(cfg.Models.Dir)
		if err != nil {
			return fmt.Errorf("init artifact store: %w", err)
		}
		a.ArtifactStore = fs
	case "database":
		switch s := a.TicketStore.(type) {
		case *primary.StoreImpl:
			if err := s.EnsureArtifactTable(ctx); err != nil {
				return fmt.Errorf("init artifact store: %w", err)
			}
			a.ArtifactStore = s
		case *sqlite.StoreImpl:
			a.ArtifactStore = s
		default:
			return fmt.Errorf("database artifact backend is not supported by %T", a.TicketStore)
		}
	default:
		return fmt.Errorf("unsupported models backend %q", cfg.Models.Backend)
	}
	return nil
}

func (a *App) initJobClient() error {
	cfg := a.Config
	if cfg.Redis.Address == "" {
		log.Info("redis.address is not set, background retraining is disabled")
		return nil
	}
	jc, err := store.NewAsynqJobClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Models.TrainTimeout)
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	a.JobClient = jc
	return nil
}

func (a *App) initPredictor() {
	m := a.Config.Models
	loader := predictor.NewTrainingDataLoader(a.TicketStore, m.MinResolvedTickets, m.Seed)
	a.Predictor = predictor.New(loader, predictor.NewBundleStore(a.ArtifactStore), predictor.Options{
		Seed:         m.Seed,
		MaxFeatures:  m.MaxFeatures,
		MaxDepth:     m.MaxDepth,
		Estimators:   m.Estimators,
		TrainTimeout: m.TrainTimeout,
	})
}

func (a *App) initServices() {
	a.PredictionService = services.NewPredictionService(a.Predictor, a.TicketStore, a.JobClient)
	a.CategorizationService = services.NewCategorizationService(a.Predictor, a.TicketStore)
}

func (a *App) cleanupPartialInit() {
	if a.JobClient != nil {
		a.JobClient.Close()
	}
	if a.TicketStore != nil {
		if err := a.TicketStore.Close(); err != nil {
			log.WithError(err).Warn("error closing ticket store")
		}
	}
}
