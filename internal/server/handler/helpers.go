// Package handler serves the read-only snapshot API.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// writeJSON marshals v and writes it with status. A marshal failure becomes a
// plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// intParam reads a positive integer query parameter, clamped to max. Missing
// values return def; malformed ones return an error.
func intParam(r *http.Request, name string, def, max int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return min(n, max), nil
}

// parseFilter builds a SnapshotFilter from min_difference,
// expiring_within_hours, search, league and profitable_only.
func parseFilter(r *http.Request) (domain.SnapshotFilter, error) {
	q := r.URL.Query()
	f := domain.SnapshotFilter{
		Search: strings.TrimSpace(q.Get("search")),
		League: strings.TrimSpace(q.Get("league")),
	}
	if v := strings.TrimSpace(q.Get("min_difference")); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d < 0 {
			return f, fmt.Errorf("min_difference must be a non-negative number")
		}
		f.MinDifferencePercent = &d
	}
	if v := strings.TrimSpace(q.Get("expiring_within_hours")); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h <= 0 {
			return f, fmt.Errorf("expiring_within_hours must be a positive integer")
		}
		f.ExpiringWithinHours = &h
	}
	if v := strings.TrimSpace(q.Get("profitable_only")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("profitable_only must be true or false")
		}
		f.ProfitableOnly = b
	}
	return f, nil
}

func handlerLogger(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("component", "handler"), slog.String("handler", name))
}
