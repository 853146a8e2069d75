package gemini

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

const modelRequestsCollection = "model_requests"

var modelPools = map[string][]string{
	"fast":     {"gemini-2.5-flash"},
	"balanced": {"gemini-2.5-flash", "gemini-2.5-pro"},
	"quality":  {"gemini-2.5-pro"},
}

// Requests per minute each model sustains before we route around it.
var modelCapacities = map[string]int{
	"gemini-2.5-flash": 1000,
	"gemini-2.5-pro":   500,
}

var qualityWeights = map[string]float64{
	"gemini-2.5-pro":   0.90,
	"gemini-2.5-flash": 0.85,
}

var fallbackChain = map[string][]string{
	"quality":  {"balanced", "fast"},
	"balanced": {"fast"},
}

const defaultModel = "gemini-2.5-flash"

// pickModel scores every model in the preferred pool by free headroom times
// quality weight and returns the best one under capacity. A fully loaded
// pool falls down the chain; the default model is the answer of last resort.
func pickModel(preference string, load map[string]int) string {
	if model := bestInPool(preference, load); model != "" {
		return model
	}
	for _, fallback := range fallbackChain[preference] {
		if model := bestInPool(fallback, load); model != "" {
			return model
		}
	}
	return defaultModel
}

func bestInPool(pool string, load map[string]int) string {
	best := ""
	bestScore := -1.0
	for _, model := range modelPools[pool] {
		capacity := modelCapacities[model]
		if capacity == 0 || load[model] >= capacity {
			continue
		}
		loadRatio := float64(load[model]) / float64(capacity)
		score := (1 - loadRatio) * qualityWeights[model]
		if score > bestScore {
			bestScore = score
			best = model
		}
	}
	return best
}

// SelectModel picks a model for the preference based on the last minute of
// recorded load. Load read failures fall back to an empty load picture
// rather than blocking the request.
func (s *Service) SelectModel(ctx context.Context, preference string) string {
	if preference == "" || preference == "auto" {
		preference = "balanced"
	}
	load, err := s.currentLoad(ctx)
	if err != nil {
		s.logger.Warn("Failed to read model load", zap.Error(err))
		load = map[string]int{}
	}
	return pickModel(preference, load)
}

// currentLoad counts vendor requests per model over the last minute.
func (s *Service) currentLoad(ctx context.Context) (map[string]int, error) {
	oneMinuteAgo := time.Now().Add(-time.Minute)
	iter := s.client.Collection(modelRequestsCollection).
		Where("timestamp", ">=", oneMinuteAgo).
		Documents(ctx)
	defer iter.Stop()

	load := map[string]int{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if model, ok := doc.Data()["model"].(string); ok {
			load[model]++
		}
	}
	return load, nil
}

func (s *Service) recordModelRequest(ctx context.Context, model string) {
	_, _, err := s.client.Collection(modelRequestsCollection).Add(ctx, map[string]interface{}{
		"model":     model,
		"timestamp": time.Now(),
	})
	if err != nil {
		s.logger.Warn("Failed to record model request", zap.Error(err))
	}
}
