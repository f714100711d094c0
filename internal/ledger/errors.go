package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDate is returned when a normal entry does not fall on a real
	// calendar day or a month is constructed outside 1..12.
	ErrInvalidDate = errors.New("invalid date")

	// ErrDataMismatch is returned when duration and from/to disagree, or when
	// only one of from/to is given.
	ErrDataMismatch = errors.New("data mismatch")

	// ErrUnsupportedControlTag is returned for control entries (day 0) whose
	// tag is neither the holiday nor the carryover tag.
	ErrUnsupportedControlTag = errors.New("unsupported control tag")

	// ErrChainBroken is returned by Validate when adjoining months do not
	// carry their balances.
	ErrChainBroken = errors.New("chain broken")

	// ErrInvalidCalendar is returned when a holiday calendar reports a
	// non-positive number of working days.
	ErrInvalidCalendar = errors.New("invalid working days")
)

// Key identifies a month in a chain.
type Key struct {
	Year  int
	Month time.Month
}

func (k Key) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// BuildError attaches the offending month to an error raised while a chain
// was being built.
type BuildError struct {
	Key Key
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building %s: %v", e.Key, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ChainBrokenError describes a single broken link between two adjoining
// months.
type ChainBrokenError struct {
	Former  Key
	Current Key
	// Field is "working_hours" or "holidays".
	Field string
	// Want is the former month's closing value, Got the current month's
	// opening value.
	Want string
	Got  string
}

func (e *ChainBrokenError) Error() string {
	return fmt.Sprintf("chain broken between %s and %s: %s closes with %s but opens with %s",
		e.Former, e.Current, e.Field, e.Want, e.Got)
}

func (e *ChainBrokenError) Unwrap() error {
	return ErrChainBroken
}
