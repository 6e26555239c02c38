// Package gemini implements the relevance classifier and the structured
// extractor on top of the Google GenAI API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/llm"
	"google.golang.org/genai"
)

const (
	DefaultFastModel       = "gemini-2.5-flash"
	DefaultQualityModel    = "gemini-2.5-pro"
	DefaultClassifierModel = "gemini-2.5-flash"
)

// contentGenerator is the subset of genai.Models the client calls
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey string
	Models llm.ModelSet
	Logger *slog.Logger
}

type Client struct {
	models   contentGenerator
	modelSet llm.ModelSet
	logger   *slog.Logger
}

// NewClient creates a Gemini API backed client
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(client.Models, cfg.Models, cfg.Logger), nil
}

func newClient(gen contentGenerator, models llm.ModelSet, logger *slog.Logger) *Client {
	if models.Fast == "" {
		models.Fast = DefaultFastModel
	}
	if models.Quality == "" {
		models.Quality = DefaultQualityModel
	}
	if models.Classifier == "" {
		models.Classifier = DefaultClassifierModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		models:   gen,
		modelSet: models,
		logger:   logger.With(slog.String("provider", "gemini")),
	}
}

// Classify asks whether text is employment-related
func (c *Client) Classify(ctx context.Context, text string) (llm.Verdict, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: llm.ClassifierSystemPrompt}}},
		MaxOutputTokens:   5,
	}

	resp, err := c.models.GenerateContent(ctx, c.modelSet.Classifier, genai.Text(llm.ClassifierPrompt(text)), cfg)
	if err != nil {
		return llm.VerdictNo, classifyError(err)
	}

	answer := responseText(resp)
	c.logger.Debug("Classifier answered", slog.String("answer", answer))
	return llm.ParseVerdict(answer), nil
}

// Extract forces a call to the extraction function and parses its arguments
func (c *Client) Extract(ctx context.Context, text, modelHint string) (*domain.ExtractionResult, error) {
	model := c.modelSet.Resolve(modelHint)
	c.logger.Info("Extracting job fields", slog.String("model", model), slog.String("hint", modelHint))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: llm.ExtractionSystemPrompt}}},
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        llm.FunctionName,
				Description: llm.FunctionDescription,
				Parameters:  extractionSchema(),
			}},
		}},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{llm.FunctionName},
			},
		},
	}

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(llm.ExtractionPrompt(text)), cfg)
	if err != nil {
		return nil, classifyError(err)
	}

	args := functionArgs(resp)
	if args == nil {
		return nil, llm.ErrNoPayload
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrMalformedPayload, err)
	}
	return llm.ParseArguments(string(raw))
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			builder.WriteString(part.Text)
		}
		break
	}
	return strings.TrimSpace(builder.String())
}

func functionArgs(resp *genai.GenerateContentResponse) map[string]any {
	if resp == nil {
		return nil
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.FunctionCall == nil {
				continue
			}
			if part.FunctionCall.Name == llm.FunctionName {
				return part.FunctionCall.Args
			}
		}
	}
	return nil
}

func extractionSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(llm.JobFields))
	for _, f := range llm.JobFields {
		if f.List {
			props[f.Name] = &genai.Schema{
				Type:        genai.TypeArray,
				Description: f.Description,
				Items:       &genai.Schema{Type: genai.TypeString},
			}
			continue
		}
		props[f.Name] = &genai.Schema{Type: genai.TypeString, Description: f.Description}
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   llm.RequiredFields(),
	}
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code >= http.StatusInternalServerError || apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", llm.ErrServiceUnavailable, err)
		}
		return fmt.Errorf("gemini request failed: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", llm.ErrServiceUnavailable, err)
	}

	return fmt.Errorf("gemini request failed: %w", err)
}
