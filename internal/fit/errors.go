package fit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSession is matched by every *SessionStateError.
	ErrNoSession = errors.New("fit: no active fit session")
	// ErrInvalidObject is matched by object validation failures.
	ErrInvalidObject = errors.New("fit: invalid object")
	// ErrBlocked is matched by every *BlockerError.
	ErrBlocked = errors.New("fit: clothing has blockers")
)

// ValidationError reports invalid input detected before any mutation.
type ValidationError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fit: invalid %s: %s", e.Subject, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BlockerError reports clothing state that would corrupt a fit: shape keys
// or modifiers other than armatures and the fit's own.
type BlockerError struct {
	Object    string
	ShapeKeys int
	Modifiers []string
}

func (e *BlockerError) Error() string {
	var parts []string
	if e.ShapeKeys > 0 {
		parts = append(parts, fmt.Sprintf("%d shape keys", e.ShapeKeys))
	}
	if len(e.Modifiers) > 0 {
		parts = append(parts, "unapplied modifiers: "+strings.Join(e.Modifiers, ", "))
	}
	return fmt.Sprintf("fit: %s has %s; clear blockers first", e.Object, strings.Join(parts, "; "))
}

func (e *BlockerError) Unwrap() error { return ErrBlocked }

// SessionStateError reports an operation that needs an active session.
type SessionStateError struct {
	Op string
}

func (e *SessionStateError) Error() string {
	if e.Op == "commit" {
		return "fit: nothing to apply"
	}
	return fmt.Sprintf("fit: %s: no active fit session", e.Op)
}

func (e *SessionStateError) Unwrap() error { return ErrNoSession }

// MissingGroupWarning is returned in Report.Warnings when the requested
// preserve group does not exist. The fit proceeds with nothing preserved.
type MissingGroupWarning struct {
	Group string
}

func (w *MissingGroupWarning) Error() string {
	return fmt.Sprintf("fit: preserve group %q not found, skipping", w.Group)
}
