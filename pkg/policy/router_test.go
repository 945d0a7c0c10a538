package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flight-search/contentguard/pkg/types"
)

func routerTable(t *testing.T) *Table {
	t.Helper()
	table, err := Parse([]byte(`
hotlines:
  crisis_lifeline: "Call or text 988."
  samhsa: "SAMHSA helpline: 1-800-662-4357."
categories:
  self_harm:
    block_threshold: 70
    priority: 95
    label: self-harm
    message: "You are not alone."
    hotline: crisis_lifeline
  drugs:
    block_threshold: 80
    priority: 90
    message: "Blocked: drugs."
    hotline: samhsa
  weapons:
    block_threshold: 80
    priority: 90
    message: "Blocked: weapons."
  piracy:
    block_threshold: 70
    priority: 60
    message: "Filtered: piracy."
`))
	require.NoError(t, err)
	return table
}

func TestRouter_AllowWhenNothingTriggered(t *testing.T) {
	r := NewRouter(routerTable(t))

	d := r.Decide(types.RiskAssessment{CategoryScores: map[string]int{}})
	assert.Equal(t, types.ActionAllow, d.Action)
	assert.Empty(t, d.Category)
	assert.Empty(t, d.ResourceRef)
}

func TestRouter_BlockAtThreshold(t *testing.T) {
	r := NewRouter(routerTable(t))

	d := r.Decide(types.RiskAssessment{
		Score:          70,
		CategoryScores: map[string]int{"self_harm": 70},
	})
	assert.Equal(t, types.ActionBlock, d.Action)
	assert.Equal(t, "self_harm", d.Category)
	assert.Equal(t, "self-harm", d.Label)
	assert.Equal(t, "crisis_lifeline", d.ResourceRef)
	assert.Equal(t, 70, d.Score)
}

func TestRouter_WarnBelowThresholdWithoutHotline(t *testing.T) {
	r := NewRouter(routerTable(t))

	d := r.Decide(types.RiskAssessment{
		Score:          40,
		CategoryScores: map[string]int{"weapons": 40},
	})
	assert.Equal(t, types.ActionWarn, d.Action)
	assert.Equal(t, "weapons", d.Category)
	assert.Empty(t, d.ResourceRef)
}

func TestRouter_AttachResourceBelowThresholdWithHotline(t *testing.T) {
	r := NewRouter(routerTable(t))

	d := r.Decide(types.RiskAssessment{
		Score:          50,
		CategoryScores: map[string]int{"self_harm": 50},
	})
	assert.Equal(t, types.ActionAttachResource, d.Action)
	assert.Equal(t, "crisis_lifeline", d.ResourceRef)
}

func TestRouter_BlockWinsButHotlineComesFromOtherCategory(t *testing.T) {
	r := NewRouter(routerTable(t))

	// weapons blocks; self_harm is sub-threshold but carries the hotline.
	d := r.Decide(types.RiskAssessment{
		Score: 85,
		CategoryScores: map[string]int{
			"weapons":   85,
			"self_harm": 50,
		},
	})
	assert.Equal(t, types.ActionBlock, d.Action)
	assert.Equal(t, "weapons", d.Category)
	assert.Equal(t, "crisis_lifeline", d.ResourceRef)
}

func TestRouter_ResourceRefPrefersHigherPriorityHotline(t *testing.T) {
	r := NewRouter(routerTable(t))

	// drugs scores higher but self_harm has the higher priority, so the
	// crisis resource wins over the substance-use one.
	d := r.Decide(types.RiskAssessment{
		Score: 90,
		CategoryScores: map[string]int{
			"drugs":     90,
			"self_harm": 45,
		},
	})
	assert.Equal(t, types.ActionBlock, d.Action)
	assert.Equal(t, "drugs", d.Category)
	assert.Equal(t, "crisis_lifeline", d.ResourceRef)
}

func TestRouter_PriorityBreaksTiesBetweenBlocks(t *testing.T) {
	r := NewRouter(routerTable(t))

	d := r.Decide(types.RiskAssessment{
		Score: 95,
		CategoryScores: map[string]int{
			"self_harm": 95,
			"weapons":   95,
		},
	})
	assert.Equal(t, types.ActionBlock, d.Action)
	assert.Equal(t, "self_harm", d.Category)
}

func TestRouter_UnknownCategoryWarns(t *testing.T) {
	r := NewRouter(routerTable(t))

	d := r.Decide(types.RiskAssessment{
		Score:          99,
		CategoryScores: map[string]int{"mystery": 99},
	})
	assert.Equal(t, types.ActionWarn, d.Action)
	assert.Equal(t, "mystery", d.Category)
	assert.Equal(t, "mystery", d.Label)
}

func TestRouter_Priority(t *testing.T) {
	r := NewRouter(routerTable(t))
	assert.Equal(t, 95, r.Priority("self_harm"))
	assert.Equal(t, 0, r.Priority("unknown"))
}
