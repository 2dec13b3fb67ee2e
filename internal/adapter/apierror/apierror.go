// Package apierror extracts human readable messages from upstream error bodies.
package apierror

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

var messagePaths = []string{"error.message", "message", "error", "detail", "msg"}

// Message returns the most specific error text found in body.
func Message(body []byte) string {
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		for _, path := range messagePaths {
			if v := parsed.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)), maxTextLen)
}

const maxTextLen = 512

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// StatusError formats a non-2xx upstream response.
func StatusError(service string, status int, body []byte) error {
	msg := Message(body)
	if msg == "" {
		return fmt.Errorf("%s returned status %d", service, status)
	}
	return fmt.Errorf("%s returned status %d: %s", service, status, msg)
}
