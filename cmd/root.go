package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"helpdesk/internal/app"
	"helpdesk/internal/config"
	"helpdesk/internal/predictor"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Helpdesk ticket insights",
	Long: `helpdesk predicts the category and resolution time of support tickets
from their text, trains its models on resolved ticket history and serves
the predictions over HTTP.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		setupLogging(cfg)
		gin.SetMode(cfg.Server.Mode)

		appInstance, err := app.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			return appInstance.Close()
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the app instance stored by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database, model and queue health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}
		cfg := appInstance.Config

		fmt.Fprintf(out, "Checking %s database connectivity...\n", cfg.Database.Driver)
		if err := appInstance.TicketStore.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		fmt.Fprintln(out, "Database connection successful.")

		fmt.Fprintf(out, "Checking persisted models (%s backend)...\n", cfg.Models.Backend)
		if _, err := predictor.NewBundleStore(appInstance.ArtifactStore).Load(ctx); err != nil {
			fmt.Fprintf(out, "Persisted models unavailable: %v\n", err)
		} else {
			fmt.Fprintln(out, "Persisted models load cleanly.")
		}

		if cfg.Redis.Address == "" {
			fmt.Fprintln(out, "Redis not configured; background retraining disabled.")
			return nil
		}
		fmt.Fprintf(out, "Checking Redis at %s...\n", cfg.Redis.Address)
		inspector := asynq.NewInspector(redisOpt(cfg))
		defer inspector.Close()
		queues, err := inspector.Queues()
		if err != nil {
			return fmt.Errorf("redis check failed: %w", err)
		}
		fmt.Fprintf(out, "Redis reachable; known queues: %v\n", queues)
		return nil
	},
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
