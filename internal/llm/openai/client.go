// Package openai implements the relevance classifier and the structured
// extractor on top of the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/llm"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	DefaultFastModel       = "gpt-3.5-turbo-0125"
	DefaultQualityModel    = "gpt-4-0125-preview"
	DefaultClassifierModel = "gpt-3.5-turbo"

	extractionTemperature = 0.2
)

type Config struct {
	APIKey  string
	BaseURL string
	Models  llm.ModelSet
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client is safe for concurrent use
type Client struct {
	api    *goopenai.Client
	models llm.ModelSet
	logger *slog.Logger
}

// NewClient builds a client from a credential read once at startup
func NewClient(cfg *Config) (*Client, error) {
	// keys pasted into env files often carry stray whitespace
	apiKey := strings.Join(strings.Fields(cfg.APIKey), "")
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	models := cfg.Models
	if models.Fast == "" {
		models.Fast = DefaultFastModel
	}
	if models.Quality == "" {
		models.Quality = DefaultQualityModel
	}
	if models.Classifier == "" {
		models.Classifier = DefaultClassifierModel
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		api:    goopenai.NewClientWithConfig(clientCfg),
		models: models,
		logger: logger.With(slog.String("provider", "openai")),
	}, nil
}

// Classify asks whether text is employment-related
func (c *Client) Classify(ctx context.Context, text string) (llm.Verdict, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.models.Classifier,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.ClassifierSystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: llm.ClassifierPrompt(text)},
		},
		MaxTokens: 5,
	})
	if err != nil {
		return llm.VerdictNo, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.VerdictNo, llm.ErrNoPayload
	}

	answer := resp.Choices[0].Message.Content
	c.logger.Debug("Classifier answered",
		slog.String("model", resp.Model),
		slog.String("answer", answer),
	)
	return llm.ParseVerdict(answer), nil
}

// Extract forces a call to the extraction function and parses its arguments
func (c *Client) Extract(ctx context.Context, text, modelHint string) (*domain.ExtractionResult, error) {
	model := c.models.Resolve(modelHint)
	c.logger.Info("Extracting job fields", slog.String("model", model), slog.String("hint", modelHint))

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.ExtractionSystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: llm.ExtractionPrompt(text)},
		},
		Tools: []goopenai.Tool{{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        llm.FunctionName,
				Description: llm.FunctionDescription,
				Parameters:  extractionSchema(),
			},
		}},
		ToolChoice: goopenai.ToolChoice{
			Type:     goopenai.ToolTypeFunction,
			Function: goopenai.ToolFunction{Name: llm.FunctionName},
		},
		Temperature: extractionTemperature,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	c.logger.Debug("Extraction completed",
		slog.String("model", resp.Model),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return llm.ParseArguments(functionArguments(resp))
}

func functionArguments(resp goopenai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	msg := resp.Choices[0].Message
	for _, call := range msg.ToolCalls {
		if call.Function.Name == llm.FunctionName {
			return call.Function.Arguments
		}
	}
	// older deployments still answer with the legacy function_call field
	if msg.FunctionCall != nil && msg.FunctionCall.Name == llm.FunctionName {
		return msg.FunctionCall.Arguments
	}
	return ""
}

func extractionSchema() jsonschema.Definition {
	props := make(map[string]jsonschema.Definition, len(llm.JobFields))
	for _, f := range llm.JobFields {
		def := jsonschema.Definition{Type: jsonschema.String, Description: f.Description}
		if f.List {
			def = jsonschema.Definition{
				Type:        jsonschema.Array,
				Description: f.Description,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
			}
		}
		props[f.Name] = def
	}

	return jsonschema.Definition{
		Type:       jsonschema.Object,
		Properties: props,
		Required:   llm.RequiredFields(),
	}
}

// classifyError marks provider outages and transport failures as
// llm.ErrServiceUnavailable. Context errors pass through untouched.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if unavailableStatus(apiErr.HTTPStatusCode) {
			return fmt.Errorf("%w: %v", llm.ErrServiceUnavailable, err)
		}
		return fmt.Errorf("openai request failed: %w", err)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		if unavailableStatus(reqErr.HTTPStatusCode) {
			return fmt.Errorf("%w: %v", llm.ErrServiceUnavailable, err)
		}
		return fmt.Errorf("openai request failed: %w", err)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", llm.ErrServiceUnavailable, err)
	}

	return fmt.Errorf("openai request failed: %w", err)
}

func unavailableStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}
