package log

import (
	"net/url"
	"regexp"
	"strings"
)

// urlPattern finds absolute http(s) URLs embedded in free text.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// secretQueryParams are query parameter names whose values are masked.
var secretQueryParams = map[string]bool{
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"api_key":       true,
	"apikey":        true,
	"key":           true,
	"secret":        true,
	"password":      true,
	"passwd":        true,
	"auth":          true,
	"session":       true,
	"sessionid":     true,
	"session_id":    true,
	"sid":           true,
	"signature":     true,
	"sig":           true,
}

// RedactURL masks the userinfo password and the values of secret query
// parameters of rawURL. Everything else, including parameter order, is kept.
// Strings that do not parse as URLs are returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return rawURL
	}

	changed := false
	var userinfo string
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			userinfo = u.User.Username() + ":" + MaskValue + "@"
			changed = true
		} else {
			userinfo = u.User.String() + "@"
		}
		u.User = nil
	}

	if u.RawQuery != "" {
		if q, masked := redactQuery(u.RawQuery); masked {
			u.RawQuery = q
			changed = true
		}
	}

	if !changed {
		return rawURL
	}
	if u.Opaque != "" {
		return u.String()
	}

	rest := strings.TrimPrefix(u.String(), u.Scheme+"://")
	return u.Scheme + "://" + userinfo + rest
}

// RedactURLs applies RedactURL to every http(s) URL found in s.
func RedactURLs(s string) string {
	if !strings.Contains(s, "://") {
		return s
	}
	return urlPattern.ReplaceAllStringFunc(s, RedactURL)
}

// redactQuery masks secret parameters in a raw query string.
// It reports whether anything was masked.
func redactQuery(rawQuery string) (string, bool) {
	parts := strings.Split(rawQuery, "&")
	masked := false
	for i, part := range parts {
		name, _, hasValue := strings.Cut(part, "=")
		if !hasValue {
			continue
		}
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if secretQueryParams[strings.ToLower(name)] {
			parts[i] = part[:strings.Index(part, "=")+1] + MaskValue
			masked = true
		}
	}
	return strings.Join(parts, "&"), masked
}
