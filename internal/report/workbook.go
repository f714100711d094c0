package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/timecalc"
)

// defaultSheet is the sheet excelize creates with every new file.
const defaultSheet = "Sheet1"

// WorkbookOptions configures Workbook.
type WorkbookOptions struct {
	// Generated is printed in the page footer.
	Generated time.Time
	// Version is printed in the page footer.
	Version string
	// Location is used for clock times. Nil means local time.
	Location *time.Location
}

// SheetName returns the worksheet name of a month, e.g. "Arbeitsprotokoll 9.2012".
func SheetName(k ledger.Key) string {
	return fmt.Sprintf("Arbeitsprotokoll %d.%d", int(k.Month), k.Year)
}

type styles struct {
	bold, date, clock, hours, days int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	for _, def := range []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.date, &excelize.Style{CustomNumFmt: strPtr("dd.mm.yy")}},
		{&s.clock, &excelize.Style{CustomNumFmt: strPtr("hh:mm")}},
		{&s.hours, &excelize.Style{CustomNumFmt: strPtr(`0.00"h"`)}},
		{&s.days, &excelize.Style{CustomNumFmt: strPtr(`0"d"`)}},
	} {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return styles{}, err
		}
		*def.dst = id
	}
	return s, nil
}

// Workbook writes one worksheet per month as an xlsx file.
func Workbook(w io.Writer, recs []ledger.MonthRecord, opts WorkbookOptions) (err error) {
	if len(recs) == 0 {
		return fmt.Errorf("no months to write")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer func() { err = multierr.Append(err, f.Close()) }()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := writeSheet(f, st, rec, opts, loc); err != nil {
			return fmt.Errorf("sheet %s: %w", rec.Key(), err)
		}
	}
	f.DeleteSheet(defaultSheet)
	f.SetActiveSheet(0)

	_, err = f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, st styles, rec ledger.MonthRecord, opts WorkbookOptions, loc *time.Location) error {
	sheet := SheetName(rec.Key())
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "D", "D", 8); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "E", "E", 63); err != nil {
		return err
	}
	landscape := "landscape"
	if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{Orientation: &landscape}); err != nil {
		return err
	}
	if err := f.SetHeaderFooter(sheet, &excelize.HeaderFooterOptions{
		OddHeader: "&A",
		OddFooter: fmt.Sprintf("&LErzeugt am %s &RTime Tracker V%s",
			opts.Generated.Format("2.1.2006 15:04"), opts.Version),
	}); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &[]any{"Datum", "Von", "Bis", "Dauer", "Tätigkeit"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", st.bold); err != nil {
		return err
	}

	row := 2
	for _, r := range rec.Records {
		if r.Day > 0 {
			day := time.Date(rec.Year, rec.Month, r.Day, 0, 0, 0, 0, time.UTC)
			if err := setStyled(f, sheet, 1, row, day, st.date); err != nil {
				return err
			}
		}
		if r.From != nil {
			if err := setStyled(f, sheet, 2, row, wallClock(*r.From, loc), st.clock); err != nil {
				return err
			}
		}
		if r.To != nil {
			if err := setStyled(f, sheet, 3, row, wallClock(*r.To, loc), st.clock); err != nil {
				return err
			}
		}
		if err := setStyled(f, sheet, 4, row, float64(r.Duration)/3600, st.hours); err != nil {
			return err
		}
		if err := setStyled(f, sheet, 5, row, r.Description, 0); err != nil {
			return err
		}
		row++
	}

	balance, _ := timecalc.Hours(rec.WorkingHoursBalance).Float64()
	row++
	for _, foot := range []struct {
		label, comment string
		value          any
		style          int
	}{
		{"Gesamt:", "Diesen Monat geleistete Arbeitsstunden", float64(rec.WorkingHours) / 3600, st.hours},
		{"Konto:", "Arbeitsstundenkonto bezüglich Monatsende", balance, st.hours},
		{"Urlaub:", "Verbleibende Urlaubstage", rec.HolidaysLeft, st.days},
	} {
		if err := setStyled(f, sheet, 1, row, foot.label, st.bold); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.AddComment(sheet, excelize.Comment{Cell: cell, Author: "tick", Text: foot.comment}); err != nil {
			return err
		}
		if err := setStyled(f, sheet, 4, row, foot.value, foot.style); err != nil {
			return err
		}
		row++
	}
	return nil
}

func setStyled(f *excelize.File, sheet string, col, row int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	if style == 0 {
		return nil
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

// wallClock returns the local clock time of a Unix timestamp as a UTC time,
// so the spreadsheet shows the time of day as seen in loc.
func wallClock(unix int64, loc *time.Location) time.Time {
	t := time.Unix(unix, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func strPtr(s string) *string {
	return &s
}
