// Package report renders exported months as text, workbooks and data
// exports.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/timecalc"
)

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
)

var (
	decorator = strings.Repeat("*", 25)
	footer    = strings.Repeat("~", 60)
)

// TextOptions configures Text.
type TextOptions struct {
	// Color renders negative balances red and positive ones green.
	Color bool
	// Location is used for clock times of the protocol. Nil means local time.
	Location *time.Location
}

// Text writes the report of one month.
func Text(w io.Writer, rec ledger.MonthRecord, opts TextOptions) error {
	color.NoColor = !opts.Color

	var b strings.Builder
	fmt.Fprintf(&b, "%s %04d-%02d %s\n", decorator, rec.Year, int(rec.Month), decorator)
	fmt.Fprintf(&b, "HolidaysLeftBeginMonth: %dd\n", rec.HolidaysLeftBegin)
	fmt.Fprintf(&b, "HolidaysLeft: %dd\n", rec.HolidaysLeft)
	fmt.Fprintf(&b, "MonthlyTarget: %sh\n", rec.MonthlyTarget.StringFixed(1))
	fmt.Fprintf(&b, "WorkingHoursAccountBeginMonth: %s (%ds)\n",
		balance(rec.WorkingHoursAccountBegin), rec.WorkingHoursAccountBegin.IntPart())
	fmt.Fprintf(&b, "WorkingHoursAccount: %s (%ds)\n",
		timecalc.FormatHours(rec.WorkingHoursAccount, 1), rec.WorkingHoursAccount.IntPart())
	fmt.Fprintf(&b, "WorkingHours: %s (%ds)\n",
		timecalc.FormatHours(decimal.NewFromInt(rec.WorkingHours), 1), rec.WorkingHours)
	fmt.Fprintf(&b, "WorkingHoursBalance: %s\n", balance(rec.WorkingHoursBalance))
	fmt.Fprintf(&b, "%s Protocol %s\n", decorator, decorator)
	for _, r := range rec.Records {
		fmt.Fprintf(&b, "%d.%d %s (%s-%s): %s\n",
			r.Day, int(rec.Month),
			timecalc.FormatHours(decimal.NewFromInt(r.Duration), 2),
			clock(r.From, opts.Location), clock(r.To, opts.Location),
			r.Description)
	}
	b.WriteString("\n")
	b.WriteString(footer)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// TextAll writes the reports of several months one after another.
func TextAll(w io.Writer, recs []ledger.MonthRecord, opts TextOptions) error {
	for _, rec := range recs {
		if err := Text(w, rec, opts); err != nil {
			return err
		}
	}
	return nil
}

// balance renders seconds as signed hours, colored by sign.
func balance(seconds decimal.Decimal) string {
	s := timecalc.FormatHours(seconds, 1)
	switch {
	case seconds.IsNegative():
		return red.Sprint(s)
	case seconds.IsPositive():
		return green.Sprint("+" + s)
	default:
		return "+" + s
	}
}

func clock(ts *int64, loc *time.Location) string {
	if ts == nil {
		return "00:00"
	}
	return timecalc.FormatClock(*ts, loc)
}
