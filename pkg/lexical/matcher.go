package lexical

import (
	"strings"

	"github.com/kljensen/snowball"
)

// MatchMode selects how a compiled rule is tested against text.
type MatchMode string

const (
	MatchExact MatchMode = "exact"
	MatchStem  MatchMode = "stem"
	MatchFuzzy MatchMode = "fuzzy"
)

// WildcardLanguage marks a rule that applies regardless of language hint.
const WildcardLanguage = "*"

// DefaultMaxEditDistance bounds fuzzy matching when no override is set.
const DefaultMaxEditDistance = 1

// CompiledRule is one blocklist entry prepared for matching. Immutable
// once built; rebuilt wholesale on snapshot reload, never mutated.
type CompiledRule struct {
	Pattern  string
	Category string
	Severity int
	Language string
	Mode     MatchMode

	normalized string
	stemmed    string
	tokens     []string
}

// Compile normalizes and pre-computes the matchable forms of a rule.
func Compile(pattern, category string, severity int, language string, mode MatchMode) CompiledRule {
	normalized := Normalize(pattern)
	r := CompiledRule{
		Pattern:    pattern,
		Category:   category,
		Severity:   severity,
		Language:   language,
		Mode:       mode,
		normalized: normalized,
		tokens:     strings.Fields(normalized),
	}
	if mode == MatchStem {
		r.stemmed = stemPhrase(normalized, language)
	}
	return r
}

// Match is one rule hit against a piece of text.
type Match struct {
	Category string
	Severity int
	Pattern  string
	Mode     MatchMode
}

// Matcher tests normalized text against compiled rules.
type Matcher struct {
	MaxEditDistance int
}

func NewMatcher(maxEditDistance int) *Matcher {
	if maxEditDistance <= 0 {
		maxEditDistance = DefaultMaxEditDistance
	}
	return &Matcher{MaxEditDistance: maxEditDistance}
}

// Match returns every rule hit for the text. An empty result is the
// normal no-match outcome, not an error.
func (m *Matcher) Match(text, language string, rules []CompiledRule) []Match {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	tokens := strings.Fields(normalized)

	var stemmed string
	var matches []Match
	for i := range rules {
		rule := &rules[i]
		if !languageApplies(rule.Language, language) {
			continue
		}
		hit := false
		switch rule.Mode {
		case MatchExact:
			hit = strings.Contains(normalized, rule.normalized)
		case MatchStem:
			if stemmed == "" {
				stemmed = stemPhrase(normalized, language)
			}
			hit = containsPhrase(stemmed, rule.stemmed)
		case MatchFuzzy:
			hit = m.fuzzyMatch(tokens, rule.tokens)
		}
		if hit {
			matches = append(matches, Match{
				Category: rule.Category,
				Severity: rule.Severity,
				Pattern:  rule.Pattern,
				Mode:     rule.Mode,
			})
		}
	}
	return matches
}

func languageApplies(ruleLang, textLang string) bool {
	if ruleLang == "" || ruleLang == WildcardLanguage {
		return true
	}
	return textLang == "" || strings.EqualFold(ruleLang, textLang)
}

// containsPhrase matches whole-token phrases, so "rap" does not hit
// inside "grape" the way a raw substring test would.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// fuzzyMatch slides a window of len(pattern) tokens over the text tokens
// and accepts windows within the edit-distance bound.
func (m *Matcher) fuzzyMatch(textTokens, patternTokens []string) bool {
	n := len(patternTokens)
	if n == 0 || len(textTokens) < n {
		return false
	}
	pattern := strings.Join(patternTokens, " ")
	for i := 0; i+n <= len(textTokens); i++ {
		window := strings.Join(textTokens[i:i+n], " ")
		if levenshteinDistance(window, pattern) <= m.MaxEditDistance {
			return true
		}
	}
	return false
}

var stemLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"no": "norwegian",
	"hu": "hungarian",
}

// stemPhrase reduces each token to its snowball stem. Tokens in languages
// without a stemmer pass through normalized but unstemmed.
func stemPhrase(normalized, language string) string {
	lang, ok := stemLanguages[strings.ToLower(language)]
	if !ok {
		lang = "english"
	}
	tokens := strings.Fields(normalized)
	for i, tok := range tokens {
		if stem, err := snowball.Stem(tok, lang, false); err == nil && stem != "" {
			tokens[i] = stem
		}
	}
	return strings.Join(tokens, " ")
}

func levenshteinDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = minInt(curr[j-1]+1, minInt(prev[j]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
