package enums

import (
	"fmt"
	"slices"
)

// parse returns the member of known equal to raw, or an error naming kind.
func parse[T ~string](kind string, known []T, raw string) (T, error) {
	if v := T(raw); slices.Contains(known, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
