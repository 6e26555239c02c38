package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cuongbtq/jobboard/internal/bootstrap"
	"github.com/cuongbtq/jobboard/internal/config"
	"github.com/cuongbtq/jobboard/shared/logger"
	"github.com/cuongbtq/jobboard/shared/postgresql"
	"github.com/cuongbtq/jobboard/shared/rabbitmq"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const app = "jobctl"

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "jobctl manages the job board database and runs ingestion from the command line",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is $JOBCTL_CONFIG_PATH or configs/api-service/config.yaml)")
}

// runtime holds what every database-backed command needs
type runtime struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *postgresql.Client
	broker *rabbitmq.Client
}

func (r *runtime) Close() {
	if r.broker != nil {
		r.broker.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
	r.logger.Close()
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := os.Getenv("JOBCTL_CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/api-service/config.yaml"
}

// loadConfig reads the config file. Logs go to stderr so command output
// on stdout stays machine readable.
func loadConfig() (*config.Config, *logger.Logger, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggingCfg := cfg.Logging
	loggingCfg.Output = "stderr"
	appLogger, err := bootstrap.InitLogger(&loggingCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, appLogger, nil
}

// connect loads the config and opens the database
func connect() (*runtime, error) {
	cfg, appLogger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		appLogger.Close()
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := bootstrap.InitPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		appLogger.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &runtime{cfg: cfg, logger: appLogger, db: db}, nil
}
