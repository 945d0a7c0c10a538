package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_ExactSubstring(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("pipe bomb", "explosives", 95, "*", MatchExact),
	}

	matches := m.Match("where to buy a PIPE-BOMB online", "en", rules)
	require.Len(t, matches, 1)
	assert.Equal(t, "explosives", matches[0].Category)
	assert.Equal(t, 95, matches[0].Severity)
}

func TestMatcher_ExactMatchesObfuscation(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("proxy", "proxies", 80, "*", MatchExact),
	}

	matches := m.Match("best pr0xy for school", "en", rules)
	require.Len(t, matches, 1)
	assert.Equal(t, "proxies", matches[0].Category)
}

func TestMatcher_NoMatchIsEmptyNotError(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("casino", "gambling", 85, "*", MatchExact),
	}

	assert.Empty(t, m.Match("science homework help", "en", rules))
	assert.Empty(t, m.Match("", "en", rules))
}

func TestMatcher_StemMatchesInflections(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("gamble", "gambling", 85, "en", MatchStem),
	}

	assert.Len(t, m.Match("gambling sites", "en", rules), 1)
	assert.Len(t, m.Match("he gambled it away", "en", rules), 1)
	assert.Empty(t, m.Match("gamboling lambs", "en", rules))
}

func TestMatcher_StemRespectsTokenBoundaries(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("rape", "sexual_assault", 95, "en", MatchStem),
	}

	assert.Empty(t, m.Match("grape juice recipe", "en", rules))
}

func TestMatcher_FuzzyWithinDistance(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("cocaine", "drugs", 90, "*", MatchFuzzy),
	}

	assert.Len(t, m.Match("buy cocaíne online", "en", rules), 1)
	assert.Len(t, m.Match("cocain for sale", "en", rules), 1)
	assert.Empty(t, m.Match("cooking class", "en", rules))
}

func TestMatcher_FuzzyMultiwordWindow(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("crystal meth", "drugs", 90, "*", MatchFuzzy),
	}

	assert.Len(t, m.Match("where to get crystal meth now", "en", rules), 1)
}

func TestMatcher_LanguageFiltering(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("verboten", "illegal_activities", 90, "de", MatchExact),
		Compile("forbidden", "illegal_activities", 90, "*", MatchExact),
	}

	en := m.Match("verboten forbidden", "en", rules)
	require.Len(t, en, 1)
	assert.Equal(t, "forbidden", en[0].Pattern)

	de := m.Match("verboten forbidden", "de", rules)
	assert.Len(t, de, 2)

	// No language hint matches every rule.
	assert.Len(t, m.Match("verboten forbidden", "", rules), 2)
}

func TestMatcher_MultipleCategories(t *testing.T) {
	m := NewMatcher(1)
	rules := []CompiledRule{
		Compile("casino", "gambling", 85, "*", MatchExact),
		Compile("poker", "gambling", 85, "*", MatchExact),
		Compile("vpn", "vpn_circumvention", 60, "*", MatchExact),
	}

	matches := m.Match("casino poker vpn", "en", rules)
	assert.Len(t, matches, 3)
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("test", "test"))
	assert.Equal(t, 1, levenshteinDistance("test", "text"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 4, levenshteinDistance("", "abcd"))
}
