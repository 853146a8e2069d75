package gemini

import (
	"context"
	"fmt"
)

// Plan names the subscription tiers. The gateway derives request and budget
// limits from the user's plan.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

// PlanLimits caps a plan's daily gateway use. -1 means unlimited.
type PlanLimits struct {
	DailyRequests int
	DailyBudget   float64
	Models        []string
}

var planLimits = map[Plan]PlanLimits{
	PlanFree:       {DailyRequests: 10, DailyBudget: 0.10, Models: []string{"gemini-2.5-flash"}},
	PlanBasic:      {DailyRequests: 100, DailyBudget: 1.00, Models: []string{"gemini-2.5-flash", "gemini-2.5-pro"}},
	PlanPremium:    {DailyRequests: 500, DailyBudget: 10.00, Models: []string{"all"}},
	PlanEnterprise: {DailyRequests: -1, DailyBudget: -1, Models: []string{"all"}},
}

// LimitsFor resolves a plan's limits. Unknown plans get free limits.
func LimitsFor(plan Plan) PlanLimits {
	if limits, ok := planLimits[plan]; ok {
		return limits
	}
	return planLimits[PlanFree]
}

// AllowsModel reports whether the plan may call the given model.
func (l PlanLimits) AllowsModel(model string) bool {
	for _, m := range l.Models {
		if m == "all" || m == model {
			return true
		}
	}
	return false
}

func allowRequest(plan Plan, usedToday int) error {
	limits := LimitsFor(plan)
	if limits.DailyRequests != -1 && usedToday >= limits.DailyRequests {
		return fmt.Errorf("%w: %d of %d used", ErrRequestLimit, usedToday, limits.DailyRequests)
	}
	return nil
}

// planFor resolves the user's plan from their subscription document. The
// renew sweep owns expiry, so the stored status is trusted as is: past_due
// users keep their plan until the sweep expires the document. Missing or
// expired subscriptions fall back to free; internal jobs (empty user) run
// unmetered.
func (s *Service) planFor(ctx context.Context, userID string) Plan {
	if userID == "" {
		return PlanEnterprise
	}

	doc, err := s.client.Collection("user_subscriptions").Doc(userID).Get(ctx)
	if err != nil {
		return PlanFree
	}

	data := doc.Data()
	subStatus, _ := data["status"].(string)
	switch subStatus {
	case "active", "trialing", "past_due":
	default:
		return PlanFree
	}

	planName, _ := data["plan"].(string)
	if planName == "" {
		return PlanFree
	}
	return Plan(planName)
}
