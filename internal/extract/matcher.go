package extract

import (
	"regexp"

	"github.com/proxyharvest/proxyharvest/internal/model"
)

// proxyPattern matches dotted-quad address:port candidates in text.
// Each octet alternative admits only 0-255. The word boundaries reject
// candidates embedded in longer digit runs ("999.1.1.1:80" has no boundary
// inside "999") and cap the port at five digits ("1.2.3.4:123456" never
// matches because no boundary exists after the fifth digit).
const proxyPattern = `\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?):\d{1,5}\b`

// Matcher scans text for proxy endpoint candidates.
//
// A Matcher is safe for concurrent use: compiled regular expressions are
// immutable and Scan keeps no state between calls.
type Matcher struct {
	// pattern matches address:port candidates.
	pattern *regexp.Regexp
}

// NewMatcher creates a new Matcher.
func NewMatcher() *Matcher {
	return &Matcher{
		pattern: regexp.MustCompile(proxyPattern),
	}
}

// Scan returns every endpoint candidate in text, in match order, with
// duplicates preserved. Matches whose port falls outside 1-65535 are
// dropped. Scan never fails; arbitrary binary input yields an empty result.
func (m *Matcher) Scan(text string) []model.ProxyToken {
	matches := m.pattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	tokens := make([]model.ProxyToken, 0, len(matches))
	for _, candidate := range matches {
		// The pattern already guarantees octet ranges; the constructor
		// additionally enforces the port range.
		token, err := model.NewProxyToken(candidate)
		if err != nil {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
