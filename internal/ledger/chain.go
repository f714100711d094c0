package ledger

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Chain maps year and month to the months materialized by a Builder.
type Chain map[int]map[time.Month]*Month

// Month returns the month for year/month, or nil.
func (c Chain) Month(year int, month time.Month) *Month {
	return c[year][month]
}

// Months returns the materialized months in chronological order.
func (c Chain) Months() []*Month {
	var out []*Month
	for _, year := range slices.Sorted(maps.Keys(c)) {
		for _, month := range slices.Sorted(maps.Keys(c[year])) {
			out = append(out, c[year][month])
		}
	}
	return out
}

// Last returns the latest month of the chain, or nil for an empty chain.
func (c Chain) Last() *Month {
	months := c.Months()
	if len(months) == 0 {
		return nil
	}
	return months[len(months)-1]
}

// Builder turns an unordered set of dated entries into a Chain.
type Builder struct {
	Calendar HolidayCalendar

	// Opening values of the first recorded month.
	HolidaysLeft         int
	WorkingHoursAccount  decimal.Decimal
	HoursWorthWorkingDay decimal.Decimal
	State                string

	// Logger receives debug output; nil disables logging.
	Logger *slog.Logger
}

// Build groups entries by month and materializes one Month per recorded
// month in chronological order.
//
// Each month after the first is opened with former.NextAt(year, month).
// Months without entries in between are not materialized and not
// backfilled: the former month's closing balance becomes the opening
// balance of the next recorded month as is, and no target accrues for the
// skipped months.
func (b *Builder) Build(entries []DatedEntry) (Chain, error) {
	log := b.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	groups := make(map[Key][]Entry)
	for _, e := range entries {
		k := Key{Year: e.Year, Month: e.Month}
		groups[k] = append(groups[k], e.Entry)
	}

	keys := slices.SortedFunc(maps.Keys(groups), func(a, b Key) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})

	chain := make(Chain)
	var former *Month
	for _, k := range keys {
		if k.Year < 1 || k.Month < time.January || k.Month > time.December {
			return nil, &BuildError{Key: k, Err: fmt.Errorf("%w: %04d-%02d is not a calendar month", ErrInvalidDate, k.Year, int(k.Month))}
		}
		var (
			current *Month
			err     error
		)
		if former == nil {
			current, err = NewMonth(b.Calendar, MonthConfig{
				Year:                 k.Year,
				Month:                k.Month,
				HolidaysLeft:         b.HolidaysLeft,
				WorkingHoursAccount:  b.WorkingHoursAccount,
				HoursWorthWorkingDay: b.HoursWorthWorkingDay,
				State:                b.State,
			})
		} else {
			if gap := monthsBetween(former.Key(), k); gap > 1 {
				log.Debug("carrying balance across gap",
					slog.String("from", former.Key().String()),
					slog.String("to", k.String()),
					slog.Int("skipped", gap-1))
			}
			current, err = former.NextAt(k.Year, k.Month)
		}
		if err != nil {
			return nil, &BuildError{Key: k, Err: err}
		}
		if err := current.AppendAll(groups[k]); err != nil {
			return nil, &BuildError{Key: k, Err: err}
		}

		if chain[k.Year] == nil {
			chain[k.Year] = make(map[time.Month]*Month)
		}
		chain[k.Year][k.Month] = current
		log.Debug("month built",
			slog.String("month", k.String()),
			slog.Int("entries", len(groups[k])),
			slog.String("balance", current.WorkingHoursBalance().StringFixed(0)))
		former = current
	}
	return chain, nil
}

func monthsBetween(a, b Key) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}
