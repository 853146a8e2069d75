package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	timeutil "github.com/lingxiaoxu/Stanse-sub005/pkg/timeutil"
)

// Service fronts every Gemini call the backend makes: plan and budget gates,
// the shared response cache, key rotation, load-based model selection and
// usage accounting. Callers parse their own response shapes.
type Service struct {
	client  *firestore.Client
	logger  *zap.Logger
	vendors []*genai.Client
	pool    *keyPool
	limiter *rate.Limiter
	cache   *responseCache
}

// NewService builds one genai client per API key. rpm paces vendor calls
// process-wide.
func NewService(ctx context.Context, client *firestore.Client, logger *zap.Logger, apiKeys []string, rpm int) (*Service, error) {
	if len(apiKeys) == 0 {
		return nil, ErrNoAPIKeys
	}

	vendors := make([]*genai.Client, 0, len(apiKeys))
	for _, key := range apiKeys {
		vendor, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: key,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		vendors = append(vendors, vendor)
	}

	if rpm <= 0 {
		rpm = 60
	}

	return &Service{
		client:  client,
		logger:  logger,
		vendors: vendors,
		pool:    newKeyPool(len(vendors)),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		cache:   newResponseCache(client, defaultCacheTTL),
	}, nil
}

// Generate runs one request through the full pipeline: plan gate, budget
// gate, cache, model selection, paced vendor call, accounting.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	plan := s.planFor(ctx, req.UserID)
	limits := LimitsFor(plan)

	if req.UserID != "" {
		stats, err := s.UsageStats(ctx, req.UserID, "today")
		if err != nil {
			return nil, err
		}
		if err := allowRequest(plan, stats.TotalRequests); err != nil {
			return nil, err
		}

		estimated := EstimateCost(req.Mode, len(req.Prompt))
		if err := s.checkBudget(ctx, req.UserID, plan, estimated); err != nil {
			return nil, err
		}
	}

	key := cacheKey(req)
	if req.UseCache {
		if entry, ok := s.cache.get(ctx, key); ok {
			return &Response{Text: entry.Answer, Model: entry.Model, FromCache: true}, nil
		}
	}

	model := s.SelectModel(ctx, req.Preference)
	if !limits.AllowsModel(model) {
		model = limits.Models[0]
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	mimeType := "application/json"
	if req.PlainText {
		mimeType = "text/plain"
	}

	resp, err := s.generateWithRotation(ctx, model, req.Prompt, mimeType)
	latency := time.Since(start).Seconds()
	if err != nil {
		s.recordMetric(ctx, "error", 1, model)
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		s.recordMetric(ctx, "error", 1, model)
		return nil, ErrEmptyCompletion
	}

	promptTokens, completionTokens := usageTokens(resp)
	cost := CalculateCost(model, promptTokens, completionTokens)

	now := time.Now()
	if err := s.recordUsage(ctx, req.UserID, UsageRecord{
		Model:            model,
		Mode:             req.Mode,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Cost:             cost,
		Day:              timeutil.DayString(now),
		Timestamp:        now,
	}); err != nil {
		s.logger.Warn("Failed to record usage", zap.String("user", req.UserID), zap.Error(err))
	}
	s.recordModelRequest(ctx, model)
	s.recordMetric(ctx, "latency", latency, model)
	s.recordMetric(ctx, "cost", cost, model)
	s.recordMetric(ctx, "success", 1, model)

	if req.UseCache {
		if err := s.cache.set(ctx, key, text, model); err != nil {
			s.logger.Warn("Failed to write cache entry", zap.Error(err))
		}
	}

	return &Response{Text: text, Model: model, Cost: cost}, nil
}

// generateWithRotation walks the key pool until a key succeeds or every key
// is cooling down. Only quota errors rotate; anything else surfaces as is.
func (s *Service) generateWithRotation(ctx context.Context, model, prompt, mimeType string) (*genai.GenerateContentResponse, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: mimeType,
	}

	var lastErr error
	for attempt := 0; attempt < len(s.vendors); attempt++ {
		idx, err := s.pool.pick(time.Now())
		if err != nil {
			if lastErr != nil {
				return nil, fmt.Errorf("%w: %v", err, lastErr)
			}
			return nil, err
		}

		resp, err := s.vendors[idx].Models.GenerateContent(ctx, model, genai.Text(prompt), config)
		if err == nil {
			return resp, nil
		}
		if !isQuotaError(err) {
			return nil, err
		}

		s.logger.Warn("Gemini key hit its quota, rotating",
			zap.Int("key", idx),
			zap.Error(err))
		s.pool.coolDown(idx, time.Now())
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrKeysExhausted, lastErr)
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func usageTokens(resp *genai.GenerateContentResponse) (prompt, completion int) {
	if resp.UsageMetadata == nil {
		return 0, 0
	}
	return int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
}

// CacheStats reports cache effectiveness since process start.
func (s *Service) CacheStats() CacheStats {
	return s.cache.stats()
}

// ClearCache drops both cache levels.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.clear(ctx)
}

// CleanupCache removes expired entries and returns how many documents went.
func (s *Service) CleanupCache(ctx context.Context) (int, error) {
	return s.cache.cleanupExpired(ctx)
}
