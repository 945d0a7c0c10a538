package blocklist

import (
	"fmt"

	"github.com/flight-search/contentguard/pkg/lexical"
)

// RuleEntry is one blocklist rule as it appears in the rule source.
// Entries are immutable once loaded; a changed rule set is a new snapshot.
type RuleEntry struct {
	Pattern  string            `yaml:"pattern"`
	Match    lexical.MatchMode `yaml:"match"`
	Category string            `yaml:"category"`
	Severity int               `yaml:"severity"`
	Language string            `yaml:"language"`
	Override bool              `yaml:"override"`
}

// ruleFile is the YAML rule-source shape consumed by Load/Reload.
type ruleFile struct {
	Version int         `yaml:"version"`
	Rules   []RuleEntry `yaml:"rules"`
}

// LoadError rejects a rule source: malformed pattern, unknown category,
// or a duplicate pattern+language without an override marker.
type LoadError struct {
	Pattern  string
	Language string
	Reason   string
}

func (e *LoadError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("blocklist load rejected: %s", e.Reason)
	}
	return fmt.Sprintf("blocklist load rejected: rule %q (language %q): %s", e.Pattern, e.Language, e.Reason)
}

func (r RuleEntry) validate(categories map[string]struct{}) *LoadError {
	lang := r.Language
	if lang == "" {
		lang = lexical.WildcardLanguage
	}
	if r.Pattern == "" {
		return &LoadError{Language: lang, Reason: "empty pattern"}
	}
	if lexical.Normalize(r.Pattern) == "" {
		return &LoadError{Pattern: r.Pattern, Language: lang, Reason: "pattern normalizes to nothing"}
	}
	switch r.Match {
	case lexical.MatchExact, lexical.MatchStem, lexical.MatchFuzzy:
	default:
		return &LoadError{Pattern: r.Pattern, Language: lang, Reason: fmt.Sprintf("unknown match mode %q", r.Match)}
	}
	if r.Severity < 0 || r.Severity > 100 {
		return &LoadError{Pattern: r.Pattern, Language: lang, Reason: fmt.Sprintf("severity %d outside [0,100]", r.Severity)}
	}
	if len(categories) > 0 {
		if _, ok := categories[r.Category]; !ok {
			return &LoadError{Pattern: r.Pattern, Language: lang, Reason: fmt.Sprintf("unknown category %q", r.Category)}
		}
	}
	return nil
}
