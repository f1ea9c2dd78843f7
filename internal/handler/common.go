package handler // handler defines http handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/adfleet/material-availability/internal/model"
)

// parseDay parses a YYYY-MM-DD request value into a UTC midnight.  The
// loose payloads the clients send are rejected here, before anything
// reaches the calculator: empty values, other layouts and garbage all
// fail with a descriptive error the handler turns into a 422.
func parseDay(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, fmt.Errorf("date is required (format %s)", model.DateLayout)
	}
	t, err := time.ParseInLocation(model.DateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (format %s)", v, model.DateLayout)
	}
	return model.Day(t), nil
}

// formatDay renders an optional day pointer for JSON payloads; nil
// stays nil so omitempty drops the field.
func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(model.DateLayout)
	return &s
}

// requireID trims a path parameter and reports whether anything
// remains.  IDs are opaque strings chosen by the admin console.
func requireID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	return id, id != ""
}
