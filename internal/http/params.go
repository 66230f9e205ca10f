package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetd/internal/core"
)

// dateRange holds the parsed start/end query parameters. Most reporting
// endpoints default to the current calendar month.
type dateRange struct {
	Start time.Time
	End   time.Time
}

func parseDateRange(r *http.Request) (dateRange, error) {
	now := time.Now().UTC()
	rng := dateRange{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC),
	}

	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return rng, core.Invalidf("invalid start date %q, want YYYY-MM-DD", v)
		}
		rng.Start = d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return rng, core.Invalidf("invalid end date %q, want YYYY-MM-DD", v)
		}
		rng.End = d
	}
	if rng.End.Before(rng.Start) {
		return rng, core.Invalidf("end date precedes start date")
	}
	return rng, nil
}

// parseOptionalID reads an optional positive integer query parameter.
func parseOptionalID(r *http.Request, name string) (*int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, core.Invalidf("invalid %s", name)
	}
	return &id, nil
}

// parseOccurredAt accepts RFC 3339 timestamps or bare dates. Empty means
// now.
func parseOccurredAt(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, core.Invalidf("invalid timestamp %q", v)
}

func parseDate(v string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, core.Invalidf("invalid date %q, want YYYY-MM-DD", v)
	}
	return d, nil
}
