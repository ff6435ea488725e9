// Package errs holds the error taxonomy shared by the money rules, the
// ledger, the challenge session and the store backends.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrConsistency      = errors.New("consistency error")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreWrite       = errors.New("store write error")
	ErrStoreQuery       = errors.New("store query error")
)

// ValidationError reports a rejected input. Nothing is mutated when one is
// returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid is shorthand for building a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IssueCode classifies a single consistency problem found on reload.
type IssueCode string

const (
	IssueLevelGap       IssueCode = "LEVEL_GAP"
	IssueLevelDuplicate IssueCode = "LEVEL_DUPLICATE"
	IssueAmount         IssueCode = "AMOUNT_MISMATCH"
	IssueEndingBalance  IssueCode = "ENDING_BALANCE_MISMATCH"
	IssueChain          IssueCode = "CHAIN_BROKEN"
	IssueAnchor         IssueCode = "ANCHOR_MISMATCH"
)

type Issue struct {
	Level int
	Code  IssueCode
	Msg   string
}

// ConsistencyError collects every issue found while replaying stored
// records. Callers may treat it as a warning and keep the replayed state.
type ConsistencyError struct {
	Issues []Issue
}

func (e *ConsistencyError) Error() string {
	if len(e.Issues) == 0 {
		return "inconsistent ledger"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("level %d %s: %s", is.Level, is.Code, is.Msg))
	}
	return "inconsistent ledger: " + strings.Join(parts, "; ")
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

func (e *ConsistencyError) Add(level int, code IssueCode, format string, args ...any) {
	e.Issues = append(e.Issues, Issue{Level: level, Code: code, Msg: fmt.Sprintf(format, args...)})
}

// Has reports whether an issue with the given code was recorded.
func (e *ConsistencyError) Has(code IssueCode) bool {
	for _, is := range e.Issues {
		if is.Code == code {
			return true
		}
	}
	return false
}

// OrNil returns nil when no issue was recorded.
func (e *ConsistencyError) OrNil() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	return e
}

type StoreKind int

const (
	StoreUnavailable StoreKind = iota
	StoreWrite
	StoreQuery
)

func (k StoreKind) sentinel() error {
	switch k {
	case StoreUnavailable:
		return ErrStoreUnavailable
	case StoreWrite:
		return ErrStoreWrite
	default:
		return ErrStoreQuery
	}
}

// StoreError wraps a failure from a ledger store backend.
type StoreError struct {
	Kind StoreKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind.sentinel(), e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == e.Kind.sentinel() }

func Unavailable(op string, err error) error {
	return &StoreError{Kind: StoreUnavailable, Op: op, Err: err}
}

func WriteFailed(op string, err error) error {
	return &StoreError{Kind: StoreWrite, Op: op, Err: err}
}

func QueryFailed(op string, err error) error {
	return &StoreError{Kind: StoreQuery, Op: op, Err: err}
}
