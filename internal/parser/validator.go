package parser

import (
	"fmt"
	"log/slog"

	"github.com/me/ossim/pkg/model"
)

// Validator checks that parsed processes can be simulated to completion.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{logger: logger.With("component", "validator")}
}

// Validate returns one FieldError per problem found; nil means valid.
func (v *Validator) Validate(entries []entry) []model.FieldError {
	var errs []model.FieldError
	seen := make(map[int]bool, len(entries))

	for _, e := range entries {
		p := e.proc
		fail := func(field, format string, args ...any) {
			if e.field != "" {
				field = e.field + "." + field
			}
			errs = append(errs, model.FieldError{Line: e.line, Field: field, Message: fmt.Sprintf(format, args...)})
		}

		switch {
		case p.ID < 0:
			fail("id", "must not be negative, got %d", p.ID)
		case seen[p.ID]:
			fail("id", "duplicate process id %d", p.ID)
		}
		seen[p.ID] = true

		if p.ArrivalTime < 0 {
			fail("arrival", "must not be negative, got %d", p.ArrivalTime)
		}
		if p.RequiredTime < 1 {
			fail("required", "must be at least 1, got %d", p.RequiredTime)
		}

		prev := 0
		for i, ev := range p.IOEvents {
			field := fmt.Sprintf("io[%d]", i)
			switch {
			case ev.Offset <= prev:
				fail(field, "offset %d must be greater than %d", ev.Offset, prev)
			case ev.Offset >= p.RequiredTime:
				fail(field, "offset %d must be less than required time %d", ev.Offset, p.RequiredTime)
			}
			if ev.Duration < 0 {
				fail(field, "duration must not be negative, got %d", ev.Duration)
			}
			prev = ev.Offset
		}
	}

	if len(errs) > 0 {
		v.logger.Debug("validation failed", "errors", len(errs))
	}
	return errs
}
