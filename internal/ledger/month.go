package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	secondsPerHour = decimal.NewFromInt(3600)
	monthsPerYear  = decimal.NewFromInt(12)
)

// HolidayCalendar reports the number of statutory working days of a year in
// a jurisdiction. The result must be positive.
type HolidayCalendar interface {
	WorkingDaysInYear(year int, state string) (int, error)
}

// MonthConfig holds the values a Month is opened with.
type MonthConfig struct {
	// Year and Month select the calendar month. Zero values fall back to Now.
	Year  int
	Month time.Month
	// Now is only consulted when Year or Month is zero.
	Now time.Time

	HolidaysLeft int
	// WorkingHoursAccount is the opening account in seconds. It may be
	// negative and fractional.
	WorkingHoursAccount decimal.Decimal
	// HoursWorthWorkingDay is the length of a standard working day in hours.
	HoursWorthWorkingDay decimal.Decimal
	// State is the jurisdiction passed to the HolidayCalendar.
	State string
}

// Month is the ledger of a single calendar month. The zero value is not
// usable; construct months with NewMonth or Next/NextAt.
//
// A Month is not safe for concurrent use.
type Month struct {
	calendar HolidayCalendar

	year  int
	month time.Month
	state string

	hoursWorthWorkingDay       decimal.Decimal
	averageWorkingDaysPerMonth decimal.Decimal

	holidaysLeftBegin        int
	holidaysSpent            int
	workingHoursAccountBegin decimal.Decimal
	workingHours             int64

	records []Record
}

// NewMonth opens a month.
func NewMonth(cal HolidayCalendar, cfg MonthConfig) (*Month, error) {
	year, month := cfg.Year, cfg.Month
	if year == 0 || month == 0 {
		if cfg.Now.IsZero() {
			return nil, fmt.Errorf("%w: year and month required when no clock is configured", ErrInvalidDate)
		}
		if year == 0 {
			year = cfg.Now.Year()
		}
		if month == 0 {
			month = cfg.Now.Month()
		}
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: %d is not a valid month", ErrInvalidDate, month)
	}
	if cal == nil {
		return nil, fmt.Errorf("%w: no holiday calendar", ErrInvalidCalendar)
	}

	days, err := cal.WorkingDaysInYear(year, cfg.State)
	if err != nil {
		return nil, fmt.Errorf("working days for %d (%q): %w", year, cfg.State, err)
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: %d working days in %d (%q)", ErrInvalidCalendar, days, year, cfg.State)
	}

	return &Month{
		calendar:                   cal,
		year:                       year,
		month:                      month,
		state:                      cfg.State,
		hoursWorthWorkingDay:       cfg.HoursWorthWorkingDay,
		averageWorkingDaysPerMonth: decimal.NewFromInt(int64(days)).Div(monthsPerYear),
		holidaysLeftBegin:          cfg.HolidaysLeft,
		workingHoursAccountBegin:   cfg.WorkingHoursAccount,
	}, nil
}

// Year returns the calendar year of m.
func (m *Month) Year() int { return m.year }

// Month returns the calendar month of m.
func (m *Month) Month() time.Month { return m.month }

// Key identifies m in a chain.
func (m *Month) Key() Key { return Key{Year: m.year, Month: m.month} }

func (m *Month) State() string { return m.state }

func (m *Month) HolidaysLeftBegin() int { return m.holidaysLeftBegin }

func (m *Month) HolidaysSpent() int { return m.holidaysSpent }

// WorkingHours is the work booked by normal entries, in seconds.
func (m *Month) WorkingHours() int64 { return m.workingHours }

func (m *Month) HoursWorthWorkingDay() decimal.Decimal { return m.hoursWorthWorkingDay }

// WorkingHoursAccountBegin is the account carried in from the previous
// month, in seconds.
func (m *Month) WorkingHoursAccountBegin() decimal.Decimal {
	return m.workingHoursAccountBegin
}

// AverageWorkingDaysPerMonth is the calendar's yearly working days divided
// by twelve, unrounded.
func (m *Month) AverageWorkingDaysPerMonth() decimal.Decimal {
	return m.averageWorkingDaysPerMonth
}

// HolidaysLeft is the number of holiday days available at the end of the
// month.
func (m *Month) HolidaysLeft() int {
	return m.holidaysLeftBegin - m.holidaysSpent
}

// WorkingHoursAccount is the opening account plus the work of this month,
// in seconds.
func (m *Month) WorkingHoursAccount() decimal.Decimal {
	return m.workingHoursAccountBegin.Add(decimal.NewFromInt(m.workingHours))
}

// MonthlyTarget is the number of hours due in this month.
func (m *Month) MonthlyTarget() decimal.Decimal {
	return m.hoursWorthWorkingDay.Mul(m.averageWorkingDaysPerMonth)
}

// WorkingHoursBalance is the signed surplus of the account over the monthly
// target, in seconds.
func (m *Month) WorkingHoursBalance() decimal.Decimal {
	return m.WorkingHoursAccount().Sub(m.MonthlyTarget().Mul(secondsPerHour))
}

// Records returns a copy of the month's records in append order.
func (m *Month) Records() []Record {
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// workingDaySeconds is the length of a default working day in seconds.
func (m *Month) workingDaySeconds() int64 {
	return m.hoursWorthWorkingDay.Mul(secondsPerHour).Round(0).IntPart()
}

// resolveDuration applies the duration precedence: a full range must agree
// with an explicit duration, partial ranges are rejected, nothing given means
// a default working day, and a bare range yields its length.
func (m *Month) resolveDuration(e Entry) (int64, error) {
	hasFrom, hasTo := e.From != nil, e.To != nil

	if e.Duration != nil && hasFrom && hasTo {
		if *e.Duration != *e.To-*e.From {
			return 0, fmt.Errorf("%w: duration %d does not match from/to (%d)",
				ErrDataMismatch, *e.Duration, *e.To-*e.From)
		}
		return *e.Duration, nil
	}
	if hasFrom != hasTo {
		return 0, fmt.Errorf("%w: from and to must be given both", ErrDataMismatch)
	}
	if e.Duration != nil {
		return *e.Duration, nil
	}
	if !hasFrom {
		return m.workingDaySeconds(), nil
	}
	return *e.To - *e.From, nil
}

// Append books e into the month.
func (m *Month) Append(e Entry) error {
	duration, err := m.resolveDuration(e)
	if err != nil {
		return err
	}

	rec := Record{
		Tag:         e.Tag,
		Day:         e.Day,
		Duration:    duration,
		From:        copyInt64(e.From),
		To:          copyInt64(e.To),
		Description: e.Description,
	}

	if e.IsControl() {
		switch e.Tag {
		case TagHoliday:
			// The duration of a holiday control entry counts days; the record
			// keeps seconds like every other record.
			m.holidaysLeftBegin += int(duration)
			rec.Duration = decimal.NewFromInt(duration).Mul(m.hoursWorthWorkingDay).Mul(secondsPerHour).IntPart()
		case TagCarryover:
			m.workingHoursAccountBegin = m.workingHoursAccountBegin.Add(decimal.NewFromInt(duration))
		default:
			return fmt.Errorf("%w: tag %q is not defined for day 0", ErrUnsupportedControlTag, e.Tag)
		}
		m.records = append(m.records, rec)
		return nil
	}

	if !validDay(m.year, m.month, e.Day) {
		return fmt.Errorf("%w: %04d-%02d-%02d does not exist", ErrInvalidDate, m.year, m.month, e.Day)
	}
	m.records = append(m.records, rec)
	m.workingHours += duration
	if e.Tag == TagHoliday {
		m.holidaysSpent++
	}
	return nil
}

// AppendAll appends entries in order and stops at the first failure.
// Entries appended before the failure stay booked.
func (m *Month) AppendAll(entries []Entry) error {
	for _, e := range entries {
		if err := m.Append(e); err != nil {
			return err
		}
	}
	return nil
}

// Next opens the calendar month following m.
func (m *Month) Next() (*Month, error) {
	return m.NextAt(0, 0)
}

// NextAt opens the month recorded after m. A zero year or month falls back
// to the corresponding part of the calendar successor. The opening balances
// are always m's closing balances, however far the target lies ahead.
func (m *Month) NextAt(year int, month time.Month) (*Month, error) {
	ny, nm := m.year, m.month+1
	if m.month == time.December {
		ny, nm = m.year+1, time.January
	}
	if year != 0 {
		ny = year
	}
	if month != 0 {
		nm = month
	}
	return NewMonth(m.calendar, MonthConfig{
		Year:                 ny,
		Month:                nm,
		HolidaysLeft:         m.HolidaysLeft(),
		WorkingHoursAccount:  m.WorkingHoursBalance(),
		HoursWorthWorkingDay: m.hoursWorthWorkingDay,
		State:                m.state,
	})
}

func validDay(year int, month time.Month, day int) bool {
	if day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && t.Month() == month
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
