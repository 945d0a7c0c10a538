package policy

import (
	"github.com/flight-search/contentguard/pkg/types"
)

// Router maps a risk assessment to a policy decision using the table.
type Router struct {
	table *Table
}

func NewRouter(table *Table) *Router {
	return &Router{table: table}
}

// Table exposes the active policy table.
func (r *Router) Table() *Table {
	return r.table
}

// Priority returns the configured priority of a category.
func (r *Router) Priority(category string) int {
	if p, ok := r.table.Policy(category); ok {
		return p.Priority
	}
	return 0
}

// Decide evaluates each triggered category against its own threshold; the
// most severe outcome wins. A triggered category below its threshold
// yields attach_resource when it carries a hotline and warn otherwise.
// A category without a configured policy cannot be judged safe, so it
// falls back to warn rather than allow.
func (r *Router) Decide(assessment types.RiskAssessment) types.PolicyDecision {
	if len(assessment.CategoryScores) == 0 {
		return types.PolicyDecision{Action: types.ActionAllow, Score: assessment.Score}
	}

	type candidate struct {
		category string
		action   types.Action
		policy   CategoryPolicy
		score    int
	}

	var winner *candidate
	resourceRef := ""
	resourcePriority := -1

	for _, category := range assessment.Categories() {
		score := assessment.CategoryScores[category]
		pol, known := r.table.Policy(category)

		action := types.ActionWarn
		if known {
			switch {
			case score >= pol.BlockThreshold:
				action = types.ActionBlock
			case pol.Hotline != "":
				action = types.ActionAttachResource
			}
		}

		// Tie-break by configured priority, not score, so a crisis-resource
		// category outranks a merely warn-level one.
		if known && pol.Hotline != "" && pol.Priority > resourcePriority {
			resourcePriority = pol.Priority
			resourceRef = pol.Hotline
		}

		c := candidate{category: category, action: action, policy: pol, score: score}
		if winner == nil || beats(c.action, c.policy.Priority, c.score, winner.action, winner.policy.Priority, winner.score) {
			winner = &c
		}
	}

	decision := types.PolicyDecision{
		Action:      winner.action,
		Category:    winner.category,
		Label:       winner.policy.Label,
		Message:     winner.policy.Message,
		ResourceRef: resourceRef,
		Score:       assessment.Score,
	}
	if decision.Label == "" {
		decision.Label = winner.category
	}
	return decision
}

func beats(action types.Action, priority, score int, otherAction types.Action, otherPriority, otherScore int) bool {
	if action.Precedence() != otherAction.Precedence() {
		return action.Precedence() > otherAction.Precedence()
	}
	if priority != otherPriority {
		return priority > otherPriority
	}
	return score > otherScore
}
