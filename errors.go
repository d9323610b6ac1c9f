package mempool

import "fmt"

// ErrorCode identifies a kind of error returned by the mempool.  It allows
// callers to programmatically distinguish error conditions without parsing
// strings.
type ErrorCode int

const (
	// ErrDuplicateTxID indicates an attempted insert of a transaction id
	// that is already present in the pool.
	ErrDuplicateTxID ErrorCode = iota

	// ErrTooManyAncestors indicates a new entry's ancestor count would
	// exceed the configured limit.
	ErrTooManyAncestors

	// ErrAncestorsTooLarge indicates the combined virtual size of a new
	// entry's in-pool ancestors would exceed the configured limit.
	ErrAncestorsTooLarge

	// ErrTooManyDescendants indicates that admitting a new entry would
	// push one of its ancestors' descendant counts over the configured
	// limit.
	ErrTooManyDescendants

	// ErrDescendantsTooLarge indicates that admitting a new entry would
	// push one of its ancestors' descendant package size over the
	// configured limit.
	ErrDescendantsTooLarge

	// ErrInvariantViolation is raised only by the sanity checker and
	// indicates a programmer error in the pool's own bookkeeping. It is
	// always fatal.
	ErrInvariantViolation
)

// errorCodeStrings maps error codes back to human readable names for
// pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrDuplicateTxID:       "ErrDuplicateTxID",
	ErrTooManyAncestors:    "ErrTooManyAncestors",
	ErrAncestorsTooLarge:   "ErrAncestorsTooLarge",
	ErrTooManyDescendants:  "ErrTooManyDescendants",
	ErrDescendantsTooLarge: "ErrDescendantsTooLarge",
	ErrInvariantViolation:  "ErrInvariantViolation",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies an error caused by a limit violation or an
// invariant failure detected while admitting or removing a transaction.
// Both AncestorLimits rejections and sanity-check failures are reported
// this way so callers can branch on the code with errors.As rather than
// string-matching the description.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether err is a RuleError carrying the given code.
func IsErrorCode(err error, c ErrorCode) bool {
	var rerr RuleError
	if re, ok := err.(RuleError); ok {
		rerr = re
	} else if re, ok := err.(*RuleError); ok && re != nil {
		rerr = *re
	} else {
		return false
	}
	return rerr.ErrorCode == c
}
