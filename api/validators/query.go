package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded by [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryToken reads an optional opaque token such as a page cursor. Only
// URL-safe characters are accepted and the value may not exceed maxLen.
func ParseQueryToken(r *http.Request, key string, maxLen int) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", nil
	}
	if len(raw) > maxLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, key+" is too long").WithDetails(map[string]any{"field": key, "max": maxLen})
	}
	for _, c := range raw {
		if !isTokenRune(c) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, key+" contains invalid characters").WithDetails(map[string]any{"field": key})
		}
	}
	return raw, nil
}

func isTokenRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}
