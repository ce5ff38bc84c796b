package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stonks-manager/config"
	"stonks-manager/internal/dto"
	"stonks-manager/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// SentimentAIRepository scores market sentiment for a symbol through the
// Google Gemini API.
type SentimentAIRepository interface {
	AnalyzeSentiment(ctx context.Context, symbol, name string) (*dto.SentimentResult, error)
}

type sentimentAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

func NewSentimentAIRepository(cfg *config.Config, log *logger.Logger) (SentimentAIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &sentimentAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		genAiClient:    genAiClient,
	}, nil
}

func (r *sentimentAIRepository) AnalyzeSentiment(ctx context.Context, symbol, name string) (*dto.SentimentResult, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for gemini request limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Gemini.Timeout)
	defer cancel()

	prompt := r.promptSentiment(symbol, name)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to send request to gemini", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to send request to gemini: %w", err)
	}

	var result dto.SentimentResult
	if err := r.parseResponse(resp, &result); err != nil {
		r.logger.ErrorContext(ctx, "failed to parse response from gemini", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to parse response from gemini: %w", err)
	}
	result.Symbol = strings.ToUpper(symbol)

	return &result, nil
}

func (r *sentimentAIRepository) promptSentiment(symbol, name string) string {
	display := symbol
	if name != "" {
		display = fmt.Sprintf("%s (%s)", name, symbol)
	}
	return fmt.Sprintf(`You are a market sentiment analyst. Assess the current public sentiment for the stock %s.
Respond with JSON only, no prose, in this exact shape:
{"sentiment": "positive|neutral|negative", "score": <float between -1 and 1>, "summary": "<one sentence>"}`, display)
}

func (r *sentimentAIRepository) parseResponse(resp *genai.GenerateContentResponse, dest interface{}) error {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("invalid response from Gemini API: no content found")
	}

	jsonString := resp.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	return json.Unmarshal([]byte(jsonString), dest)
}
