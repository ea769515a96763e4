package utils

import "strings"

func StringPtr(s string) *string {
	return &s
}

// NilIfEmpty returns nil for blank strings, a pointer to the trimmed value otherwise.
func NilIfEmpty(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
