package subscriptions

import (
	"errors"
	"time"
)

var (
	ErrTrialAlreadyUsed  = errors.New("trial was already used")
	ErrAlreadySubscribed = errors.New("an active subscription already exists")
	ErrUnknownPlan       = errors.New("unknown plan")
	ErrNotSubscribed     = errors.New("no subscription on file")
)

// Plans mirror the gateway tiers; the model gateway reads the same
// documents to resolve usage limits.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// Subscription statuses.
const (
	StatusNone     = "none"
	StatusTrialing = "trialing"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusExpired  = "expired"
)

const (
	trialDuration = 14 * 24 * time.Hour
	billingPeriod = 30 * 24 * time.Hour
	pastDueGrace  = 3 * 24 * time.Hour
)

// The trial unlocks this plan.
const trialPlan = PlanPremium

// Subscription is a user_subscriptions document. The field names are shared
// with the other consumers of this collection, so they stay snake_case.
type Subscription struct {
	Plan        string    `firestore:"plan"`
	Status      string    `firestore:"status"`
	TrialUsed   bool      `firestore:"trial_used"`
	TrialEndsAt time.Time `firestore:"trial_ends_at,omitempty"`
	PeriodStart time.Time `firestore:"current_period_start,omitempty"`
	PeriodEnd   time.Time `firestore:"current_period_end,omitempty"`
	AutoRenew   bool      `firestore:"auto_renew"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

// Status is what the app shows the user: the stored document evaluated
// against the clock, never trusting a stale status field.
type Status struct {
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	TrialEndsAt *time.Time `json:"trialEndsAt,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
	AutoRenew   bool       `json:"autoRenew"`
}

func validPlan(plan string) bool {
	switch plan {
	case PlanBasic, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// evaluate derives the effective status at a point in time. It never
// writes; the renew sweep is the only thing that mutates documents.
func evaluate(sub *Subscription, now time.Time) Status {
	if sub == nil {
		return Status{Plan: PlanFree, Status: StatusNone}
	}

	switch sub.Status {
	case StatusTrialing:
		if now.After(sub.TrialEndsAt) {
			return Status{Plan: PlanFree, Status: StatusExpired}
		}
		ends := sub.TrialEndsAt
		return Status{Plan: sub.Plan, Status: StatusTrialing, TrialEndsAt: &ends}

	case StatusActive:
		end := sub.PeriodEnd
		if now.After(sub.PeriodEnd) {
			if !sub.AutoRenew {
				return Status{Plan: PlanFree, Status: StatusExpired}
			}
			// The sweep has not rolled the period yet.
			return Status{Plan: sub.Plan, Status: StatusPastDue, PeriodEnd: &end, AutoRenew: true}
		}
		return Status{Plan: sub.Plan, Status: StatusActive, PeriodEnd: &end, AutoRenew: sub.AutoRenew}

	case StatusPastDue:
		end := sub.PeriodEnd
		if now.After(sub.PeriodEnd.Add(pastDueGrace)) {
			return Status{Plan: PlanFree, Status: StatusExpired}
		}
		return Status{Plan: sub.Plan, Status: StatusPastDue, PeriodEnd: &end, AutoRenew: sub.AutoRenew}

	default:
		return Status{Plan: PlanFree, Status: StatusExpired}
	}
}
