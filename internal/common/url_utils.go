package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

var (
	patternCache   = make(map[string]*regexp.Regexp)
	patternCacheMu sync.Mutex
)

// URLPatternRegexp converts a URL glob into an anchored regular expression.
// "**" matches any run of characters, "*" matches within a single path segment.
// Every other character is literal.
func URLPatternRegexp(pattern string) *regexp.Regexp {
	patternCacheMu.Lock()
	defer patternCacheMu.Unlock()

	if re, ok := patternCache[pattern]; ok {
		return re
	}

	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")

	re := regexp.MustCompile(b.String())
	patternCache[pattern] = re
	return re
}

// MatchURLPattern reports whether rawURL matches the glob pattern
func MatchURLPattern(pattern, rawURL string) bool {
	return URLPatternRegexp(pattern).MatchString(rawURL)
}

// JoinURL appends a path to a base URL, normalising the slash between them
func JoinURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}
