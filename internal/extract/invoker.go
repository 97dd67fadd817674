package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/arjunrs/paperbank/internal/model"
)

const (
	defaultMaxTokens   = 4096
	defaultBackoffUnit = 2 * time.Second
)

// completionAPI is the slice of the OpenAI client the invoker depends on.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// PageRequest carries everything needed to extract one page.
type PageRequest struct {
	// ImageJPEG is the rendered page, sent base64-encoded with a high
	// detail hint.
	ImageJPEG []byte
	// PageNumber is 1-based and orders pages within a document.
	PageNumber int
	// PriorContext is an optional caller-supplied continuity aid.
	PriorContext string
	// Memory is the shared per-session page memory, mutated on every attempt.
	// A nil memory is replaced with a fresh empty one.
	Memory *PageMemory
	// EnabledTypes is the type vocabulary for this invocation. An empty set
	// is not rejected; it simply validates no extracted question.
	EnabledTypes model.TypeSet
}

// InvokerConfig configures an Invoker.
type InvokerConfig struct {
	Keys        []string
	BaseURL     string
	Model       string
	MaxTokens   int
	BackoffUnit time.Duration
	Logger      *slog.Logger
}

// Invoker extracts questions from page images by calling a multimodal
// completion API, rotating through the credential pool on retryable failures.
type Invoker struct {
	pool      KeyPool
	model     string
	maxTokens int
	backoff   time.Duration
	logger    *slog.Logger

	// newClient and sleep are swapped out in tests.
	newClient func(apiKey string) completionAPI
	sleep     func(time.Duration)
}

// NewInvoker creates an invoker over the given credential pool.
func NewInvoker(cfg InvokerConfig) *Invoker {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = defaultBackoffUnit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Invoker{
		pool:      KeyPool(cfg.Keys),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		backoff:   cfg.BackoffUnit,
		logger:    cfg.Logger,
		newClient: func(apiKey string) completionAPI {
			config := openai.DefaultConfig(apiKey)
			if cfg.BaseURL != "" {
				config.BaseURL = cfg.BaseURL
			}
			return openai.NewClientWithConfig(config)
		},
		sleep: time.Sleep,
	}
}

// Extract produces validated questions for one page, or fails after
// exhausting every credential. Transport failures, malformed completion
// bodies, and shape mismatches are all equally retryable; each retry uses
// the next credential and waits a linearly growing delay. Page memory gets
// the current page's synthetic context written at the start of every attempt,
// regardless of the outcome.
func (i *Invoker) Extract(ctx context.Context, req PageRequest) ([]model.ExtractedQuestion, error) {
	if req.Memory == nil {
		req.Memory = NewPageMemory()
	}
	reqID := uuid.New().String()
	maxAttempts := i.pool.Size()
	start := time.Now()

	i.logger.Info("extract.page.start",
		"req_id", reqID,
		"page", req.PageNumber,
		"model", i.model,
		"pool_size", maxAttempts,
		"image_bytes", len(req.ImageJPEG),
		"enabled_types", req.EnabledTypes.Strings(),
	)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req.Memory.Record(req.PageNumber)

		prompt := buildPrompt(req.PriorContext, req.Memory.Window(req.PageNumber), req.EnabledTypes)
		client := i.newClient(i.pool.KeyFor(attempt))

		content, err := i.complete(ctx, client, prompt, req.ImageJPEG)
		if err != nil {
			lastErr = err
			i.logger.Warn("extract.page.attempt_failed",
				"req_id", reqID, "page", req.PageNumber, "attempt", attempt+1, "error", err)
			i.wait(attempt, maxAttempts)
			continue
		}

		raw := stripCodeFences(content)
		qs, err := decodeQuestions([]byte(raw))
		if err != nil {
			lastErr = err
			i.logger.Warn("extract.page.bad_response",
				"req_id", reqID, "page", req.PageNumber, "attempt", attempt+1, "error", err, "raw", raw)
			i.wait(attempt, maxAttempts)
			continue
		}

		kept := FilterValid(qs, req.EnabledTypes)
		if len(qs) > 0 && len(kept) == 0 {
			// Parseable response with zero survivors counts as a successful
			// empty page, not a failure. Logged so silent drops are auditable.
			i.logger.Warn("extract.page.all_filtered",
				"req_id", reqID, "page", req.PageNumber, "parsed", len(qs))
		}
		i.logger.Info("extract.page.ok",
			"req_id", reqID,
			"page", req.PageNumber,
			"attempt", attempt+1,
			"parsed", len(qs),
			"kept", len(kept),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return kept, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all %d extraction attempts failed. Last error: %w", maxAttempts, lastErr)
	}
	// Unreachable with a non-empty pool; an empty pool yields an empty result.
	return nil, nil
}

// complete issues one multimodal request: the prompt text plus the page image
// as a base64 JPEG with a high detail hint, bounded output and near-zero
// temperature.
func (i *Invoker) complete(ctx context.Context, client completionAPI, prompt string, imageJPEG []byte) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: i.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageJPEG),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens:   i.maxTokens,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("completion API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// wait sleeps a delay proportional to the attempt number (linear backoff)
// unless this was the final attempt.
func (i *Invoker) wait(attempt, maxAttempts int) {
	if attempt+1 >= maxAttempts {
		return
	}
	i.sleep(time.Duration(attempt+1) * i.backoff)
}

// stripCodeFences removes markdown code fences some models wrap around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
