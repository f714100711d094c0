package ledger

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate checks that every adjoining pair of months carries its balances:
// the former's closing working-hours balance must equal the current's
// opening account and the former's holidays left the current's opening
// holidays. It returns the first violation as a *ChainBrokenError.
func Validate(months []*Month) error {
	for i := 1; i < len(months); i++ {
		if err := checkLink(months[i-1], months[i]); err != nil {
			return err
		}
	}
	return nil
}

func checkLink(former, current *Month) error {
	if want, got := former.WorkingHoursBalance(), current.WorkingHoursAccountBegin(); !want.Equal(got) {
		return &ChainBrokenError{
			Former:  former.Key(),
			Current: current.Key(),
			Field:   "working_hours",
			Want:    want.String(),
			Got:     got.String(),
		}
	}
	if want, got := former.HolidaysLeft(), current.HolidaysLeftBegin(); want != got {
		return &ChainBrokenError{
			Former:  former.Key(),
			Current: current.Key(),
			Field:   "holidays",
			Want:    fmt.Sprint(want),
			Got:     fmt.Sprint(got),
		}
	}
	return nil
}

// ValidateAll is Validate without stopping at the first broken link. The
// returned error combines every violation; use multierr.Errors to list them.
func ValidateAll(months []*Month) error {
	var errs error
	for i := 1; i < len(months); i++ {
		errs = multierr.Append(errs, checkLink(months[i-1], months[i]))
	}
	return errs
}
