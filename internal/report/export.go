package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/Tiliavir/tick/internal/ledger"
)

// Format is a machine readable export format.
type Format string

// Supported export formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml or csv)", s)
}

// csvHeader lists the month summary columns of the csv export.
var csvHeader = []string{
	"year", "month", "state",
	"holidays_left_begin", "holidays_spent", "holidays_left",
	"working_hours_account_begin", "working_hours", "working_hours_account",
	"monthly_target", "working_hours_balance",
}

// Export writes recs in the given format. json and yaml carry the full
// month including its protocol; csv writes one summary row per month.
func Export(w io.Writer, recs []ledger.MonthRecord, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case FormatYAML:
		data, err := yaml.Marshal(recs)
		if err != nil {
			return fmt.Errorf("marshalling yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatCSV:
		return exportCSV(w, recs)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func exportCSV(w io.Writer, recs []ledger.MonthRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write([]string{
			strconv.Itoa(r.Year),
			strconv.Itoa(int(r.Month)),
			r.State,
			strconv.Itoa(r.HolidaysLeftBegin),
			strconv.Itoa(r.HolidaysSpent),
			strconv.Itoa(r.HolidaysLeft),
			r.WorkingHoursAccountBegin.String(),
			strconv.FormatInt(r.WorkingHours, 10),
			r.WorkingHoursAccount.String(),
			r.MonthlyTarget.StringFixed(4),
			r.WorkingHoursBalance.StringFixed(4),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
