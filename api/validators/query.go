package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter, returning fallback
// when absent.
func ParseQueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return value, nil
}

// ParseQueryFloat reads an optional float query parameter, returning fallback
// when absent.
func ParseQueryFloat(r *http.Request, name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return value, nil
}
