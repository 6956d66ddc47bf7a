package logutil

import (
	"net/url"
	"regexp"
	"strings"
)

var urlInTextRE = regexp.MustCompile(`https?://[^\s"'<>]+`)

// RedactError returns err's text with credential-like query parameters
// masked in any URL it mentions. Transport errors from the model SDK embed
// the request URL, which may carry ?key=.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return RedactText(err.Error())
}

func RedactText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return urlInTextRE.ReplaceAllStringFunc(raw, redactURL)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for k := range q {
		if isCredentialKey(k) {
			q.Set(k, "[redacted]")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func isCredentialKey(key string) bool {
	n := strings.ToLower(strings.TrimSpace(key))
	n = strings.NewReplacer("-", "", "_", "").Replace(n)
	if n == "key" {
		return true
	}
	for _, part := range []string{"apikey", "token", "secret", "password", "authorization"} {
		if strings.Contains(n, part) {
			return true
		}
	}
	return false
}
