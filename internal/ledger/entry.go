/*
Package ledger is the monthly working-hours ledger.

A Month accumulates entries for one calendar month and derives its
balances on every call. Months are linked into a chain through Next/NextAt:
the closing working-hours balance and the holidays left of one month become
the opening values of the month recorded next.

Months without entries are never materialized. When the log skips from
January to April, April opens with January's closing balance exactly; the
targets of February and March are not accrued.
*/
package ledger

import "time"

const (
	// TagHoliday marks holiday entries. On a control entry the duration is a
	// number of holiday days granted, on a normal entry one day is spent.
	TagHoliday = "h"
	// TagCarryover marks control entries that shift the opening
	// working-hours account by a number of seconds.
	TagCarryover = "c"
)

// Entry is a single ledger line as supplied by an entry source. Optional
// values are nil when absent.
type Entry struct {
	Tag string
	// Day is 0 for control entries and 1..31 for normal entries.
	Day int
	// Duration is in seconds, or in days for holiday control entries.
	Duration *int64
	// From and To are Unix timestamps bounding the work period.
	From        *int64
	To          *int64
	Description string
}

// IsControl reports whether e adjusts balances instead of recording work.
func (e Entry) IsControl() bool {
	return e.Day == 0
}

// DatedEntry is an Entry positioned in a calendar month.
type DatedEntry struct {
	Year  int
	Month time.Month
	Entry
}

// Record is an entry as stored in a month, with its duration resolved.
type Record struct {
	Tag         string `json:"tag" yaml:"tag"`
	Day         int    `json:"day" yaml:"day"`
	Duration    int64  `json:"duration" yaml:"duration"`
	From        *int64 `json:"from,omitempty" yaml:"from,omitempty"`
	To          *int64 `json:"to,omitempty" yaml:"to,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
