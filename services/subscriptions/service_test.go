package subscriptions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestEvaluateNoSubscription(t *testing.T) {
	state := evaluate(nil, now)
	assert.Equal(t, StatusNone, state.Status)
	assert.Equal(t, PlanFree, state.Plan)
}

func TestEvaluateTrial(t *testing.T) {
	sub := &Subscription{
		Plan:        trialPlan,
		Status:      StatusTrialing,
		TrialUsed:   true,
		TrialEndsAt: now.Add(24 * time.Hour),
	}

	state := evaluate(sub, now)
	assert.Equal(t, StatusTrialing, state.Status)
	assert.Equal(t, PlanPremium, state.Plan)
	assert.Equal(t, sub.TrialEndsAt, *state.TrialEndsAt)

	// The same document after the trial ran out.
	state = evaluate(sub, now.Add(48*time.Hour))
	assert.Equal(t, StatusExpired, state.Status)
	assert.Equal(t, PlanFree, state.Plan)
}

func TestEvaluateActive(t *testing.T) {
	sub := &Subscription{
		Plan:        PlanBasic,
		Status:      StatusActive,
		PeriodEnd:   now.Add(10 * 24 * time.Hour),
		AutoRenew:   true,
		PeriodStart: now.Add(-20 * 24 * time.Hour),
	}

	state := evaluate(sub, now)
	assert.Equal(t, StatusActive, state.Status)
	assert.Equal(t, PlanBasic, state.Plan)

	// Past the period end with auto renew the sweep has work to do, but the
	// user keeps access.
	state = evaluate(sub, now.Add(15*24*time.Hour))
	assert.Equal(t, StatusPastDue, state.Status)
	assert.Equal(t, PlanBasic, state.Plan)

	// Without auto renew a lapsed period means expired.
	sub.AutoRenew = false
	state = evaluate(sub, now.Add(15*24*time.Hour))
	assert.Equal(t, StatusExpired, state.Status)
	assert.Equal(t, PlanFree, state.Plan)
}

func TestEvaluatePastDueGrace(t *testing.T) {
	sub := &Subscription{
		Plan:      PlanPremium,
		Status:    StatusPastDue,
		PeriodEnd: now.Add(-24 * time.Hour),
	}

	// Inside the grace window the plan stays.
	state := evaluate(sub, now)
	assert.Equal(t, StatusPastDue, state.Status)
	assert.Equal(t, PlanPremium, state.Plan)

	// Past the grace window it expires.
	state = evaluate(sub, now.Add(pastDueGrace))
	assert.Equal(t, StatusExpired, state.Status)
	assert.Equal(t, PlanFree, state.Plan)
}

func TestSweepUpdates(t *testing.T) {
	cases := []struct {
		name    string
		sub     Subscription
		touched bool
		status  string
	}{
		{
			name:    "running trial untouched",
			sub:     Subscription{Status: StatusTrialing, TrialEndsAt: now.Add(time.Hour)},
			touched: false,
		},
		{
			name:    "expired trial drops to free",
			sub:     Subscription{Status: StatusTrialing, TrialEndsAt: now.Add(-time.Hour)},
			touched: true,
			status:  StatusExpired,
		},
		{
			name:    "active period untouched",
			sub:     Subscription{Status: StatusActive, PeriodEnd: now.Add(time.Hour), AutoRenew: true},
			touched: false,
		},
		{
			name:    "lapsed auto renew rolls the period",
			sub:     Subscription{Status: StatusActive, PeriodEnd: now.Add(-time.Hour), AutoRenew: true},
			touched: true,
		},
		{
			name:    "lapsed cancelled subscription expires",
			sub:     Subscription{Status: StatusActive, PeriodEnd: now.Add(-time.Hour)},
			touched: true,
			status:  StatusExpired,
		},
	}

	for _, c := range cases {
		updates := sweepUpdates(&c.sub, now)
		if c.touched && len(updates) == 0 {
			t.Errorf("%s: expected updates, got none", c.name)
			continue
		}
		if !c.touched && len(updates) != 0 {
			t.Errorf("%s: expected no updates, got %+v", c.name, updates)
			continue
		}
		if c.status != "" {
			found := false
			for _, u := range updates {
				if u.Path == "status" && u.Value == c.status {
					found = true
				}
			}
			if !found {
				t.Errorf("%s: expected status update to %s, got %+v", c.name, c.status, updates)
			}
		}
	}
}

func TestSweepRollKeepsPlan(t *testing.T) {
	sub := Subscription{Status: StatusActive, Plan: PlanPremium, PeriodEnd: now.Add(-time.Hour), AutoRenew: true}

	updates := sweepUpdates(&sub, now)
	for _, u := range updates {
		if u.Path == "plan" || u.Path == "status" {
			t.Errorf("a period roll must not change plan or status, got %+v", u)
		}
		if u.Path == "current_period_end" {
			assert.Equal(t, sub.PeriodEnd.Add(billingPeriod), u.Value)
		}
	}
}
