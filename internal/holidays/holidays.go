// Package holidays provides German statutory holidays and the number of
// working days they leave in a year.
package holidays

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
)

// National is the jurisdiction with only the nationwide holidays.
const National = "DE"

// Holiday is a statutory day off.
type Holiday struct {
	Date time.Time
	Name string
}

func fixed(name string, month time.Month, day int) *cal.Holiday {
	return &cal.Holiday{Name: name, Type: cal.ObservancePublic, Month: month, Day: day, Func: cal.CalcDayOfMonth}
}

func years(h *cal.Holiday, start, end int) *cal.Holiday {
	c := *h
	c.StartYear, c.EndYear = start, end
	return &c
}

func easter(name string, offset int) *cal.Holiday {
	return &cal.Holiday{Name: name, Type: cal.ObservancePublic, Offset: offset, Func: cal.CalcEasterOffset}
}

var (
	neujahr             = fixed("Neujahr", time.January, 1)
	heiligeDreiKoenige  = fixed("Heilige Drei Könige", time.January, 6)
	frauentagBE         = years(fixed("Internationaler Frauentag", time.March, 8), 2019, 0)
	frauentagMV         = years(fixed("Internationaler Frauentag", time.March, 8), 2023, 0)
	karfreitag          = easter("Karfreitag", -2)
	ostersonntag        = easter("Ostersonntag", 0)
	ostermontag         = easter("Ostermontag", 1)
	tagDerArbeit        = fixed("Tag der Arbeit", time.May, 1)
	befreiung2020       = years(fixed("Tag der Befreiung", time.May, 8), 2020, 2020)
	befreiung2025       = years(fixed("Tag der Befreiung", time.May, 8), 2025, 2025)
	christiHimmelfahrt  = easter("Christi Himmelfahrt", 39)
	pfingstsonntag      = easter("Pfingstsonntag", 49)
	pfingstmontag       = easter("Pfingstmontag", 50)
	fronleichnam        = easter("Fronleichnam", 60)
	mariaeHimmelfahrt   = fixed("Mariä Himmelfahrt", time.August, 15)
	weltkindertag       = years(fixed("Weltkindertag", time.September, 20), 2019, 0)
	deutscheEinheit     = fixed("Tag der Deutschen Einheit", time.October, 3)
	reformationstag     = fixed("Reformationstag", time.October, 31)
	reformationstagNord = years(reformationstag, 2018, 0)
	reformationstag2017 = years(reformationstag, 2017, 2017)
	allerheiligen       = fixed("Allerheiligen", time.November, 1)
	weihnachten         = fixed("1. Weihnachtstag", time.December, 25)
	stephanstag         = fixed("2. Weihnachtstag", time.December, 26)

	// Buß- und Bettag is the last Wednesday before November 23rd.
	bussUndBettag = &cal.Holiday{
		Name:    "Buß- und Bettag",
		Type:    cal.ObservancePublic,
		Month:   time.November,
		Day:     22,
		Weekday: time.Wednesday,
		Offset:  -1,
		Func:    cal.CalcWeekdayFrom,
	}
)

var nationwide = []*cal.Holiday{
	neujahr, karfreitag, ostermontag, tagDerArbeit, christiHimmelfahrt,
	pfingstmontag, deutscheEinheit, reformationstag2017, weihnachten, stephanstag,
}

var regional = map[string][]*cal.Holiday{
	National: nil,
	"BW":     {heiligeDreiKoenige, fronleichnam, allerheiligen},
	"BY":     {heiligeDreiKoenige, fronleichnam, allerheiligen},
	"BE":     {frauentagBE, befreiung2020, befreiung2025},
	"BB":     {ostersonntag, pfingstsonntag, reformationstag},
	"HB":     {reformationstagNord},
	"HH":     {reformationstagNord},
	"HE":     {fronleichnam},
	"MV":     {frauentagMV, reformationstag},
	"NI":     {reformationstagNord},
	"NW":     {fronleichnam, allerheiligen},
	"RP":     {fronleichnam, allerheiligen},
	"SL":     {fronleichnam, mariaeHimmelfahrt, allerheiligen},
	"SN":     {reformationstag, bussUndBettag},
	"ST":     {heiligeDreiKoenige, reformationstag},
	"SH":     {reformationstagNord},
	"TH":     {weltkindertag, reformationstag},
}

// States returns the supported jurisdiction codes, National first.
func States() []string {
	out := make([]string, 0, len(regional))
	for s := range regional {
		if s != National {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return append([]string{National}, out...)
}

// Calendar implements ledger.HolidayCalendar for Germany.
//
// An empty state observes no holidays at all, so every weekday counts as a
// working day.
type Calendar struct {
	mu        sync.Mutex
	calendars map[string]*cal.BusinessCalendar
}

// New returns a Calendar.
func New() *Calendar {
	return &Calendar{calendars: make(map[string]*cal.BusinessCalendar)}
}

func rules(state string) ([]*cal.Holiday, error) {
	if state == "" {
		return nil, nil
	}
	extra, ok := regional[state]
	if !ok {
		return nil, fmt.Errorf("unknown state %q (known: %v)", state, States())
	}
	return append(append([]*cal.Holiday{}, nationwide...), extra...), nil
}

// business returns the Monday to Friday calendar of state with its holidays.
func (c *Calendar) business(state string) (*cal.BusinessCalendar, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bc, ok := c.calendars[state]; ok {
		return bc, nil
	}
	hs, err := rules(state)
	if err != nil {
		return nil, err
	}
	bc := cal.NewBusinessCalendar()
	bc.AddHoliday(hs...)
	c.calendars[state] = bc
	return bc, nil
}

// Holidays lists the holidays of year in state, sorted by date.
func (c *Calendar) Holidays(year int, state string) ([]Holiday, error) {
	hs, err := rules(state)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]bool)
	var out []Holiday
	for _, h := range hs {
		if !observedIn(h, year) {
			continue
		}
		actual, _ := h.Calc(year)
		d := date(actual.Year(), actual.Month(), actual.Day())
		if actual.IsZero() || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, Holiday{Date: d, Name: h.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// WorkingDaysInYear counts the weekdays of year that are not holidays in
// state.
func (c *Calendar) WorkingDaysInYear(year int, state string) (int, error) {
	bc, err := c.business(state)
	if err != nil {
		return 0, err
	}
	days := 0
	for d := date(year, time.January, 1); d.Year() == year; d = d.AddDate(0, 0, 1) {
		if bc.IsWorkday(d) {
			days++
		}
	}
	return days, nil
}

// Easter returns Easter Sunday of the Gregorian calendar.
func Easter(year int) time.Time {
	actual, _ := ostersonntag.Calc(year)
	return date(actual.Year(), actual.Month(), actual.Day())
}

func observedIn(h *cal.Holiday, year int) bool {
	if h.StartYear > 0 && year < h.StartYear {
		return false
	}
	return h.EndYear == 0 || year <= h.EndYear
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
