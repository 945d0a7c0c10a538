package pipeline

import (
	"regexp"
	"strings"
)

// Tokens that mark a URL as unsafe on their own, before any rule-based
// scoring. Catches hosts and paths the domain lists miss.
var unsafeURLTokens = regexp.MustCompile(`(?i)` +
	`porn|xxx|nsfw|nude|naked|hentai|gore|snuff|fetish|escort|` +
	`camgirl|webcam[-_ ]?girl|strip[-_ ]?club|topless|` +
	`darknet|dark[-_ ]?web|torrent|warez|crack[-_ ]?download|` +
	`proxy[-_ ]?unblocker|unblock[-_ ]?site|bypass[-_ ]?filter`)

func unsafeURL(url string) bool {
	return unsafeURLTokens.MatchString(url)
}

// extractHost pulls the hostname out of a URL without validating it;
// result URLs are opaque text, not trusted metadata.
func extractHost(url string) string {
	if !strings.Contains(url, "://") {
		return ""
	}
	rest := strings.SplitN(url, "://", 2)[1]
	host := strings.SplitN(rest, "/", 2)[0]
	host = strings.SplitN(host, ":", 2)[0]
	return strings.ToLower(host)
}
