package util

import (
	"net/url"
	"strings"
)

// ParseQuery returns the query parameters of rawURL as a flat map. Values keep
// any '=' after the first one, '+' decodes to a space, and pairs without '='
// are ignored. Each name and value is decoded after splitting, so an escaped
// '&' stays inside its value.
func ParseQuery(rawURL string) map[string]string {
	params := make(map[string]string)

	_, query, ok := strings.Cut(rawURL, "?")
	if !ok || query == "" {
		return params
	}

	for _, pair := range strings.Split(query, "&") {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		params[unescape(name)] = unescape(value)
	}
	return params
}

func unescape(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return strings.ReplaceAll(s, "+", " ")
}
