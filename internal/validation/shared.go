package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// Error carries field-level validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, field := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(msgs, "; ")
}

// fields collects messages and turns them into an *Error.
type fields map[string]string

func (f fields) err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Fields: f}
}

func (f fields) positive(name string, v decimal.Decimal) {
	if !v.IsPositive() {
		f[name] = name + " must be greater than zero"
	}
}

func (f fields) optionalPositive(name string, v *decimal.Decimal) {
	if v != nil {
		f.positive(name, *v)
	}
}

func (f fields) currency(name, v string, required bool) {
	if strings.TrimSpace(v) == "" {
		if required {
			f[name] = name + " is required"
		}
		return
	}
	if !model.Currency(strings.ToUpper(v)).Valid() {
		f[name] = fmt.Sprintf("invalid currency: %s (use TRY or USD)", v)
	}
}

func (f fields) date(name, v string) {
	if _, err := ParseDate(v); err != nil {
		f[name] = err.Error()
	}
}
