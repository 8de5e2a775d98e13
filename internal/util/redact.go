package util

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	keyValuePattern = regexp.MustCompile(`(?i)(api_key|apikey|secret|token|password|access_key|signature)\s*[:=]\s*([^\s"'&]+)`)
	userinfoPattern = regexp.MustCompile(`(?i)(https?://)[^/\s:@]+:[^/\s@]+@`)
	sensitiveParams = []string{"token", "access_token", "signature", "sig", "x-amz-signature", "x-amz-credential", "x-amz-security-token", "key", "api_key", "password"}
)

// RedactSecrets removes likely secrets, such as credentials embedded in URLs,
// from text before it is logged or persisted.
func RedactSecrets(input string) string {
	out := userinfoPattern.ReplaceAllString(input, "${1}[REDACTED]@")
	out = keyValuePattern.ReplaceAllString(out, `$1=[REDACTED]`)
	return out
}

// RedactURL masks the password and sensitive query parameters of a URL. Inputs
// that do not parse as URLs go through RedactSecrets instead.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return RedactSecrets(raw)
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "REDACTED")
		}
	}
	query := u.Query()
	changed := false
	for name := range query {
		for _, sensitive := range sensitiveParams {
			if strings.EqualFold(name, sensitive) {
				query.Set(name, "REDACTED")
				changed = true
			}
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
