package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthRecord is the read-only projection of a Month handed to renderers and
// the archive. Derived values are computed at export time.
type MonthRecord struct {
	Year  int        `json:"year" yaml:"year"`
	Month time.Month `json:"month" yaml:"month"`
	State string     `json:"state" yaml:"state"`

	HoursWorthWorkingDay       decimal.Decimal `json:"hours_worth_working_day" yaml:"hours_worth_working_day"`
	AverageWorkingDaysPerMonth decimal.Decimal `json:"average_working_days_per_month" yaml:"average_working_days_per_month"`

	HolidaysLeftBegin int `json:"holidays_left_begin" yaml:"holidays_left_begin"`
	HolidaysSpent     int `json:"holidays_spent" yaml:"holidays_spent"`
	HolidaysLeft      int `json:"holidays_left" yaml:"holidays_left"`

	WorkingHoursAccountBegin decimal.Decimal `json:"working_hours_account_begin" yaml:"working_hours_account_begin"`
	WorkingHours             int64           `json:"working_hours" yaml:"working_hours"`
	WorkingHoursAccount      decimal.Decimal `json:"working_hours_account" yaml:"working_hours_account"`
	MonthlyTarget            decimal.Decimal `json:"monthly_target" yaml:"monthly_target"`
	WorkingHoursBalance      decimal.Decimal `json:"working_hours_balance" yaml:"working_hours_balance"`

	Records []Record `json:"protocol" yaml:"protocol"`
}

// Key identifies the exported month.
func (r MonthRecord) Key() Key {
	return Key{Year: r.Year, Month: r.Month}
}

// Export returns the current state of m.
func (m *Month) Export() MonthRecord {
	return MonthRecord{
		Year:                       m.year,
		Month:                      m.month,
		State:                      m.state,
		HoursWorthWorkingDay:       m.hoursWorthWorkingDay,
		AverageWorkingDaysPerMonth: m.averageWorkingDaysPerMonth,
		HolidaysLeftBegin:          m.holidaysLeftBegin,
		HolidaysSpent:              m.holidaysSpent,
		HolidaysLeft:               m.HolidaysLeft(),
		WorkingHoursAccountBegin:   m.workingHoursAccountBegin,
		WorkingHours:               m.workingHours,
		WorkingHoursAccount:        m.WorkingHoursAccount(),
		MonthlyTarget:              m.MonthlyTarget(),
		WorkingHoursBalance:        m.WorkingHoursBalance(),
		Records:                    m.Records(),
	}
}

// Restore rebuilds a Month from an exported record. Only the stored values
// are taken over; derived values are recomputed against cal, so a record
// whose derived fields were edited by hand does not reintroduce them.
func Restore(cal HolidayCalendar, rec MonthRecord) (*Month, error) {
	m, err := NewMonth(cal, MonthConfig{
		Year:                 rec.Year,
		Month:                rec.Month,
		HolidaysLeft:         rec.HolidaysLeftBegin,
		WorkingHoursAccount:  rec.WorkingHoursAccountBegin,
		HoursWorthWorkingDay: rec.HoursWorthWorkingDay,
		State:                rec.State,
	})
	if err != nil {
		return nil, err
	}
	m.holidaysSpent = rec.HolidaysSpent
	m.workingHours = rec.WorkingHours
	m.records = make([]Record, len(rec.Records))
	for i, r := range rec.Records {
		r.From, r.To = copyInt64(r.From), copyInt64(r.To)
		m.records[i] = r
	}
	return m, nil
}
