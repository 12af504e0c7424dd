package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/ai"
	"github.com/spigell/talent-screener/internal/logger"
)

const (
	Provider = "vertex"

	defaultModel    = "gemini-1.5-flash"
	defaultLocation = "us-central1"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Options configure a Client.
type Options struct {
	ProjectID   string
	Location    string
	Model       string
	Temperature float32
	Retry       ai.RetryPolicy
}

// Client calls Gemini models hosted on Vertex AI.
type Client struct {
	client *genai.Client
	model  string
	retry  ai.RetryPolicy
	logger *zap.Logger

	// newModel builds a model bound to a system instruction. Models are
	// created per call since the instruction is model state.
	newModel func(system string) contentGenerator
}

func New(ctx context.Context, opts Options, log *zap.Logger) (*Client, error) {
	projectID := strings.TrimSpace(opts.ProjectID)
	if projectID == "" {
		return nil, errors.New("vertex ai project id is required")
	}

	location := strings.TrimSpace(opts.Location)
	if location == "" {
		location = defaultLocation
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	c := &Client{
		client: client,
		model:  model,
		retry:  opts.Retry,
		logger: logger.WithFields(log, logger.ProviderFields(Provider, model)...),
	}
	c.newModel = func(system string) contentGenerator {
		m := client.GenerativeModel(model)
		if opts.Temperature > 0 {
			m.SetTemperature(opts.Temperature)
		}
		if system != "" {
			m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}
		return m
	}
	return c, nil
}

// Extract implements ai.Extractor. Rate limiting is retried.
func (c *Client) Extract(ctx context.Context, instruction, text string) (string, error) {
	if c == nil || c.newModel == nil {
		return "", errors.New("vertex ai client is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("text must not be empty")
	}

	model := c.newModel(strings.TrimSpace(instruction))
	return ai.Do(ctx, c.retry, ai.RateLimitClassifier, c.logger, func(ctx context.Context) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(text))
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		return responseText(resp)
	})
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no response candidates returned")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
		// only the first candidate with content is used
		break
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("vertex ai returned empty response")
	}
	return output, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
