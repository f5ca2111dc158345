package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
)

// Common validation errors
var (
	ErrInvalidUUID      = apperrors.ErrInvalidUUID
	ErrInvalidDateRange = apperrors.ErrInvalidDateRange
)

// dateLayouts are the accepted transaction date formats.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD or RFC 3339 date into UTC. An empty string
// yields nil, meaning "undated".
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot parse date %q, use YYYY-MM-DD", ErrInvalidDateRange, s)
}

// ParseRange parses a start and end date and checks end is after start.
func ParseRange(start, end string) (time.Time, time.Time, error) {
	s, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if s == nil || e == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start and end are required", ErrInvalidDateRange)
	}
	if !e.After(*s) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be after start", ErrInvalidDateRange)
	}
	return *s, *e, nil
}
