package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/talent-screener/internal/ai"
	"github.com/spigell/talent-screener/internal/logger"
	"github.com/spigell/talent-screener/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel        = "gemini-2.5-flash"
	defaultMaxLogLength = 200
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type clientChats struct {
	chats *genai.Chats
}

func (c clientChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.chats.Create(ctx, model, config, history)
}

// Options configure a Generator.
type Options struct {
	APIKey       string
	Model        string
	Temperature  float32
	Retry        ai.RetryPolicy
	MaxLogLength int
}

// Generator sends single turn prompts to the Gemini API.
type Generator struct {
	chats       chatCreator
	model       string
	temperature *float32
	retry       ai.RetryPolicy
	maxLogLen   int
	logger      *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
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

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	g := &Generator{
		chats:     clientChats{chats: client.Chats},
		model:     model,
		retry:     opts.Retry,
		maxLogLen: opts.MaxLogLength,
		logger:    logger.WithFields(log, logger.ProviderFields(Provider, model)...),
	}
	if opts.Temperature > 0 {
		g.temperature = genai.Ptr(opts.Temperature)
	}
	if g.maxLogLen <= 0 {
		g.maxLogLen = defaultMaxLogLength
	}
	return g, nil
}

// Extract implements ai.Extractor.
func (g *Generator) Extract(ctx context.Context, instruction, text string) (string, error) {
	return g.GenerateContent(ctx, instruction, text)
}

// GenerateContent sends message with the given system instruction and returns
// the textual answer. Rate limiting and server errors are retried.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	log := g.logger
	if log == nil {
		log = zap.NewNop()
	}

	log.Debug("gemini request",
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, g.maxLogLen)),
	)

	out, err := ai.Do(ctx, g.retry, temporary, log, func(ctx context.Context) (string, error) {
		return g.send(ctx, system, message)
	})
	if err != nil {
		return "", err
	}

	log.Debug("gemini response",
		zap.Int("response_length", utf8.RuneCountInString(out)),
		zap.String("response_preview", utils.TruncateForLog(out, g.maxLogLen)),
	)
	return out, nil
}

func (g *Generator) send(ctx context.Context, system, message string) (string, error) {
	config := &genai.GenerateContentConfig{Temperature: g.temperature}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: system}},
		}
	}

	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
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
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// temporary retries rate limiting and server side failures.
func temporary(err error) (bool, time.Duration) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return false, 0
		}
		apiErr = *ptr
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		hint, _ := ai.RetryAfter(apiErr.Message)
		return true, hint
	default:
		return false, 0
	}
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
