// Package parse provides string parsing utilities for CLI commands.
package parse

import (
	"fmt"
	"strings"
)

// KeyValue splits a "key:value" string at the first colon. Both parts are
// trimmed. ok is false when there is no colon or the key is empty.
func KeyValue(s string) (key, value string, ok bool) {
	key, value, found := strings.Cut(s, ":")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// Headers parses repeated "key:value" flags into a map. Later values win.
func Headers(headers []string) (map[string]string, error) {
	if len(headers) == 0 {
		return nil, nil
	}
	result := make(map[string]string, len(headers))
	for _, h := range headers {
		key, value, ok := KeyValue(h)
		if !ok {
			return nil, fmt.Errorf("invalid header %q (expected key:value)", h)
		}
		result[key] = value
	}
	return result, nil
}
