package scorer

import "regexp"

// Academic framings that reduce the risk score of reducible categories.
// "history of gambling" is homework; "online casino" is not.
var educationalPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:history|origins?|evolution|timeline)\s+(?:of|behind)\b`),
	regexp.MustCompile(`(?i)^what\s+(?:is|are|was|were)\b`),
	regexp.MustCompile(`(?i)^(?:effects?|impact|consequences?|dangers?)\s+of\b`),
	regexp.MustCompile(`(?i)^(?:science|chemistry|physics|biology)\s+(?:of|behind)\b`),
	regexp.MustCompile(`(?i)^how\s+does?\s+\w+\s+work\b`),
	regexp.MustCompile(`(?i)^why\s+(?:is|are|do|does|did|was|were)\b`),
	regexp.MustCompile(`(?i)\b(?:for\s+kids|for\s+students|for\s+school|homework|essay|report|project)\b`),
	regexp.MustCompile(`(?i)\b(?:definition|meaning|explained|overview|summary)\b`),
}

func hasEducationalContext(query string) bool {
	for _, pattern := range educationalPrefixes {
		if pattern.MatchString(query) {
			return true
		}
	}
	return false
}
