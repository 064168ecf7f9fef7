package sessiondomain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput matches every InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIllegalTransition matches every IllegalTransitionError.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrInconsistent matches every ConsistencyError.
	ErrInconsistent = errors.New("ledger inconsistent with game history")
)

// InvalidInputError reports input rejected before any state was touched.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// NewInvalidInput builds an InvalidInputError with a formatted reason.
func NewInvalidInput(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func invalid(field, format string, args ...any) error {
	return NewInvalidInput(field, format, args...)
}

// IllegalTransitionError reports an action the session's current status forbids.
type IllegalTransitionError struct {
	From   Status
	Action string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: cannot %s a %s session", e.Action, e.From)
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// Mismatch is one entity whose ledger totals differ from its recomputed history.
type Mismatch struct {
	Entity   string `json:"entity"`
	ID       string `json:"id"`
	Field    string `json:"field"`
	Ledger   string `json:"ledger"`
	Computed string `json:"computed"`
}

// ConsistencyError lists every divergence found by reconciliation.
// It is surfaced for manual repair and never corrected implicitly.
type ConsistencyError struct {
	Mismatches []Mismatch
}

func (e *ConsistencyError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for i, m := range e.Mismatches {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Mismatches)-5))
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s %s: ledger=%s computed=%s", m.Entity, m.ID, m.Field, m.Ledger, m.Computed))
	}
	return "ledger inconsistent with game history: " + strings.Join(parts, "; ")
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrInconsistent }
