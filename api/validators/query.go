package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": key, "value": SanitizeString(raw, 32)})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "value": value, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryLimit reads the "limit" parameter of journal listings.
func ParseQueryLimit(r *http.Request) (int, error) {
	return ParseQueryInt(r, "limit", DefaultListLimit, 1, MaxListLimit)
}
