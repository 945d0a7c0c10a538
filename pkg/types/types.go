package types

import "sort"

// Action is the policy outcome for a query or a single result item.
type Action string

const (
	ActionAllow          Action = "allow"
	ActionWarn           Action = "warn"
	ActionAttachResource Action = "attach_resource"
	ActionBlock          Action = "block"
)

// Precedence orders actions by severity so the worst outcome wins when
// several categories trigger at once.
func (a Action) Precedence() int {
	switch a {
	case ActionBlock:
		return 3
	case ActionAttachResource:
		return 2
	case ActionWarn:
		return 1
	default:
		return 0
	}
}

// Source identifies which signals produced a risk assessment.
type Source string

const (
	SourceLexical    Source = "lexical"
	SourceClassifier Source = "classifier"
	SourceCombined   Source = "combined"
)

// ResultItem is one aggregated search result. The pipeline treats its
// fields as opaque text to score, not metadata to validate.
type ResultItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// SearchRequest is the input boundary from the aggregation engine: the
// query plus the results it already fetched for it.
type SearchRequest struct {
	Query    string       `json:"query"`
	Language string       `json:"language"`
	Results  []ResultItem `json:"results"`
}

// RiskAssessment is the scored view of one piece of text. It is produced
// fresh per query/result and never persisted.
type RiskAssessment struct {
	Score           int            `json:"score"`
	CategoryScores  map[string]int `json:"category_scores,omitempty"`
	Source          Source         `json:"source"`
	SnapshotVersion uint64         `json:"snapshot_version"`
}

// Categories returns the triggered category names in stable order.
func (a RiskAssessment) Categories() []string {
	cats := make([]string, 0, len(a.CategoryScores))
	for c := range a.CategoryScores {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Triggered reports whether the given category contributed to the score.
func (a RiskAssessment) Triggered(category string) bool {
	_, ok := a.CategoryScores[category]
	return ok
}

// PolicyDecision is the routed outcome for one assessment.
type PolicyDecision struct {
	Action      Action `json:"action"`
	Category    string `json:"category,omitempty"`
	Label       string `json:"label,omitempty"`
	Message     string `json:"message,omitempty"`
	ResourceRef string `json:"resource_ref,omitempty"`
	Score       int    `json:"score"`
}

// ScoredResult pairs a surviving result item with its decision. Items
// whose decision is block are dropped from the response instead.
type ScoredResult struct {
	Item     ResultItem     `json:"item"`
	Decision PolicyDecision `json:"decision"`
}

// FilteredResponse is the output boundary to the presentation layer. The
// presentation layer renders placeholders and hotline banners from the
// decision data; no markup is produced here.
type FilteredResponse struct {
	QueryDecision PolicyDecision `json:"query_decision"`
	Results       []ScoredResult `json:"results"`
	Dropped       int            `json:"dropped"`

	// Worst-case category and resource across the query and surviving
	// items, so a hotline banner can be shown even when nothing was
	// individually blocked.
	Category    string `json:"category,omitempty"`
	ResourceRef string `json:"resource_ref,omitempty"`
}
