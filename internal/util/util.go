package util

import "strings"

// HideKey obscures a credential for logging purposes, showing only the
// first and last few characters.
func HideKey(key string) string {
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	} else if len(key) > 4 {
		return key[:2] + "..." + key[len(key)-2:]
	} else if len(key) > 2 {
		return key[:1] + "..." + key[len(key)-1:]
	}
	return key
}

// MaskAuthorization masks the credential part of an Authorization header
// value while keeping the scheme readable.
func MaskAuthorization(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) != 2 {
		return HideKey(trimmed)
	}
	return parts[0] + " " + HideKey(strings.TrimSpace(parts[1]))
}
