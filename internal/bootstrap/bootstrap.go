// Package bootstrap builds the infrastructure clients and the ingestion
// pipeline from configuration. Shared by the API, the worker and jobctl.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/config"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/ingest"
	"github.com/cuongbtq/jobboard/internal/llm"
	"github.com/cuongbtq/jobboard/internal/llm/gemini"
	"github.com/cuongbtq/jobboard/internal/llm/openai"
	"github.com/cuongbtq/jobboard/internal/pdftext"
	"github.com/cuongbtq/jobboard/shared/logger"
	"github.com/cuongbtq/jobboard/shared/postgresql"
	"github.com/cuongbtq/jobboard/shared/rabbitmq"
)

// LLMClient is a provider able to both classify and extract
type LLMClient interface {
	ingest.Classifier
	ingest.StructuredExtractor
}

// InitLogger initializes and configures the application logger
func InitLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		NoColor:      cfg.NoColor,
	})
}

// PostgresConfig maps the database section onto the client config
func PostgresConfig(cfg *config.DatabaseConfig) *postgresql.Config {
	return &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
}

// InitPostgreSQL initializes the PostgreSQL database client
func InitPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(PostgresConfig(cfg), logger)
}

// RabbitMQConfig maps the rabbitmq section onto the client config
func RabbitMQConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		BindingKey:         cfg.BindingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}
}

// InitRabbitMQ initializes the RabbitMQ client
func InitRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(RabbitMQConfig(cfg), logger)
}

// InitPublisher returns a broker-backed publisher, or a no-op one when the
// broker is disabled. The returned client is nil in the latter case.
func InitPublisher(cfg *config.RabbitMQConfig, logger *slog.Logger) (events.Publisher, *rabbitmq.Client, error) {
	if !cfg.Enabled {
		logger.Info("RabbitMQ disabled, job events will not be published")
		return events.NopPublisher{}, nil, nil
	}

	client, err := InitRabbitMQ(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return events.NewRabbitPublisher(client, logger), client, nil
}

// NewLLMClient builds the client for the configured provider
func NewLLMClient(ctx context.Context, cfg *config.LLMConfig, logger *slog.Logger) (LLMClient, error) {
	active := cfg.Active()
	models := llm.ModelSet{
		Fast:       active.FastModel,
		Quality:    active.QualityModel,
		Classifier: active.ClassifierModel,
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		client, err := openai.NewClient(&openai.Config{
			APIKey:  active.APIKey,
			BaseURL: active.BaseURL,
			Models:  models,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, &gemini.Config{
			APIKey: active.APIKey,
			Models: models,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// NewTextExtractor applies the ingestion limits to the PDF extractor
func NewTextExtractor(cfg *config.IngestionConfig) *pdftext.Extractor {
	var opts []pdftext.Option
	if cfg.MaxFileSize > 0 {
		opts = append(opts, pdftext.WithMaxSize(cfg.MaxFileSize))
	}
	if cfg.MinTextLength > 0 {
		opts = append(opts, pdftext.WithMinTextLength(cfg.MinTextLength))
	}
	return pdftext.New(opts...)
}

// BuildPipeline wires text extraction, the provider and the store into an
// ingestion pipeline
func BuildPipeline(ctx context.Context, cfg *config.Config, store ingest.Store, logger *slog.Logger) (*ingest.Pipeline, error) {
	client, err := NewLLMClient(ctx, &cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}

	return NewPipeline(cfg, client, store, logger), nil
}

// NewPipeline assembles a pipeline around an existing provider client
func NewPipeline(cfg *config.Config, client LLMClient, store ingest.Store, logger *slog.Logger) *ingest.Pipeline {
	pipelineCfg := &ingest.Config{
		Logger:    logger,
		Text:      NewTextExtractor(&cfg.Ingestion),
		Extractor: client,
		Store:     store,
		Timeout:   cfg.Ingestion.Timeout,
	}
	if cfg.Ingestion.ClassifierOn() {
		pipelineCfg.Classifier = client
	} else {
		logger.Info("Relevance classifier disabled")
	}

	logger.Info("Ingestion pipeline ready",
		slog.String("provider", cfg.LLM.Provider),
		slog.Bool("classifier", cfg.Ingestion.ClassifierOn()),
	)
	return ingest.NewPipeline(pipelineCfg)
}
