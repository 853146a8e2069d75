package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsForUnknownPlan(t *testing.T) {
	limits := LimitsFor(Plan("platinum"))
	assert.Equal(t, planLimits[PlanFree], limits, "Unknown plans should be treated as free")
}

func TestAllowsModel(t *testing.T) {
	free := LimitsFor(PlanFree)
	assert.True(t, free.AllowsModel("gemini-2.5-flash"))
	assert.False(t, free.AllowsModel("gemini-2.5-pro"))

	premium := LimitsFor(PlanPremium)
	assert.True(t, premium.AllowsModel("gemini-2.5-pro"))
	assert.True(t, premium.AllowsModel("anything-at-all"))
}

func TestAllowRequest(t *testing.T) {
	assert.Nil(t, allowRequest(PlanFree, 9))
	assert.ErrorIs(t, allowRequest(PlanFree, 10), ErrRequestLimit)
	assert.ErrorIs(t, allowRequest(PlanBasic, 100), ErrRequestLimit)
	assert.Nil(t, allowRequest(PlanEnterprise, 1_000_000), "Enterprise has no request cap")
}
