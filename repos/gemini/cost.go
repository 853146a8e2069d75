package gemini

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	timeutil "github.com/lingxiaoxu/Stanse-sub005/pkg/timeutil"
)

const (
	usersCollection   = "users"
	usageSubCol       = "ember_cost_sessions"
	budgetsCollection = "user_budgets"
)

// Per-1M-token prices. Matched by substring so dated model IDs still
// resolve.
var modelPricing = []struct {
	key    string
	input  float64
	output float64
}{
	{"gemini-2.5-pro", 1.25, 5.0},
	{"gemini-2.5-flash", 0.075, 0.3},
}

// Unknown models are billed at pro rates rather than undercounted.
const (
	fallbackInputPrice  = 1.25
	fallbackOutputPrice = 5.0
)

// CalculateCost prices a finished vendor call from its token counts.
func CalculateCost(model string, promptTokens, completionTokens int) float64 {
	inputPrice, outputPrice := fallbackInputPrice, fallbackOutputPrice
	modelLower := strings.ToLower(model)
	for _, p := range modelPricing {
		if strings.Contains(modelLower, p.key) {
			inputPrice, outputPrice = p.input, p.output
			break
		}
	}

	inputCost := float64(promptTokens) / 1_000_000 * inputPrice
	outputCost := float64(completionTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}

var modeEstimates = map[string]float64{
	"default":     0.0015,
	"geolocation": 0.0015,
	"analysis":    0.0045,
	"batch":       0.0002,
}

// EstimateCost guesses a request's cost before the vendor call so the budget
// gate can run up front. Long prompts scale the estimate, capped at three
// times the base.
func EstimateCost(mode string, messageLength int) float64 {
	base, ok := modeEstimates[mode]
	if !ok {
		base = 0.001
	}
	lengthFactor := math.Min(float64(messageLength)/100, 3.0)
	return base * lengthFactor
}

func (s *Service) recordUsage(ctx context.Context, userID string, rec UsageRecord) error {
	if userID == "" {
		return nil
	}
	_, _, err := s.client.Collection(usersCollection).Doc(userID).
		Collection(usageSubCol).
		Add(ctx, rec)
	return err
}

// UsageStats aggregates the user's ledger rows for a period (today, week,
// month or all).
func (s *Service) UsageStats(ctx context.Context, userID, period string) (*UsageStats, error) {
	query := s.client.Collection(usersCollection).Doc(userID).Collection(usageSubCol).Query
	if start := timeutil.PeriodStart(time.Now(), period); !start.IsZero() {
		query = query.Where("timestamp", ">=", start)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	stats := &UsageStats{Period: period, ByModel: map[string]ModelUsage{}}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var rec UsageRecord
		if err := doc.DataTo(&rec); err != nil {
			// If this fails, we have an inconsistency error as we control both the data written to
			// Firestore and the shape of our usage struct.
			return nil, fmt.Errorf(
				"consistency error. Converting %+v to internal usage struct failed: %w",
				doc,
				err,
			)
		}

		tokens := rec.PromptTokens + rec.CompletionTokens
		stats.TotalCost += rec.Cost
		stats.TotalRequests++
		stats.TotalTokens += tokens

		usage := stats.ByModel[rec.Model]
		usage.Requests++
		usage.Tokens += tokens
		usage.Cost += rec.Cost
		stats.ByModel[rec.Model] = usage
	}
	return stats, nil
}

// checkBudget gates a request on the user's daily spend. The plan sets the
// default limit; a user_budgets document overrides it. Negative limits mean
// unlimited.
func (s *Service) checkBudget(ctx context.Context, userID string, plan Plan, estimatedCost float64) error {
	dailyLimit := LimitsFor(plan).DailyBudget

	doc, err := s.client.Collection(budgetsCollection).Doc(userID).Get(ctx)
	if err == nil {
		if v, err := doc.DataAt("daily_limit"); err == nil {
			if f, ok := v.(float64); ok {
				dailyLimit = f
			}
		}
	} else if status.Code(err) != codes.NotFound {
		return err
	}

	if dailyLimit < 0 {
		return nil
	}

	stats, err := s.UsageStats(ctx, userID, "today")
	if err != nil {
		return err
	}

	if stats.TotalCost+estimatedCost > dailyLimit {
		remaining := dailyLimit - stats.TotalCost
		if remaining < 0 {
			remaining = 0
		}
		s.triggerBudgetAlert(ctx, userID, stats.TotalCost, dailyLimit)
		return fmt.Errorf("%w: used $%.4f of $%.2f, $%.4f remaining",
			ErrBudgetExceeded, stats.TotalCost, dailyLimit, remaining)
	}
	return nil
}
