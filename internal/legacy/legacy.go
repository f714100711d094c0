// Package legacy translates the semicolon separated protocol files of the
// old time sheet into ledger entries.
//
// A legacy file holds the rows of one month:
//
//	Datum;Stunden;Tätigkeit
//	03.09.;4,5;08:00-12:30 fixing the build
//	04.09.;2;planning
//	insgesamt;6,5;
//
// Header and total rows are skipped. The year is not part of the rows; it is
// taken from the file name (protocol.12-09.csv is 2012) or given explicitly.
package legacy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/Tiliavir/tick/internal/ledger"
)

// Tag is the tag of translated entries.
const Tag = "e"

// ErrMonthMismatch is returned when a row belongs to another month than the
// first row of the file.
var ErrMonthMismatch = errors.New("row month does not match the month of the file")

var fromTo = regexp.MustCompile(`^[0-9:]{1,5}-[0-9:]{1,5}`)

// Options configures Translate.
type Options struct {
	// Year of the rows.
	Year int
	// Location interprets the clock times of a from-to prefix. Nil means local time.
	Location *time.Location
	// Encoding of the input: "utf-8" (default), "latin1" or "cp1252".
	Encoding string
}

// Decoding returns the decoder for an encoding name.
func Decoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

// YearFromFilename extracts the year of a legacy file named like
// "protocol.12-09.csv".
func YearFromFilename(path string) (int, error) {
	parts := strings.Split(filepath.Base(path), ".")
	if len(parts) < 3 {
		return 0, fmt.Errorf("no year in file name %q", path)
	}
	yy, _, _ := strings.Cut(parts[1], "-")
	year, err := strconv.Atoi(yy)
	if err != nil {
		return 0, fmt.Errorf("no year in file name %q", path)
	}
	return year + 2000, nil
}

// Translate reads a legacy file and returns its rows as entries.
func Translate(r io.Reader, opts Options) ([]ledger.DatedEntry, error) {
	if opts.Year < 1 {
		return nil, fmt.Errorf("invalid year %d", opts.Year)
	}
	enc, err := Decoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	cr := csv.NewReader(enc.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		entries []ledger.DatedEntry
		month   time.Month
	)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if skip(fields) {
			continue
		}

		e, err := translateRow(fields, opts.Year, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if month == 0 {
			month = e.Month
		}
		if e.Month != month {
			return nil, fmt.Errorf("line %d: %w (%d, want %d)", line, ErrMonthMismatch, e.Month, month)
		}
		entries = append(entries, e)
	}
}

func skip(fields []string) bool {
	if len(fields) == 0 || strings.TrimSpace(strings.Join(fields, "")) == "" {
		return true
	}
	return strings.Contains(fields[0], "Datum") || strings.Contains(fields[0], "insgesamt")
}

func translateRow(fields []string, year int, loc *time.Location) (ledger.DatedEntry, error) {
	if len(fields) < 2 {
		return ledger.DatedEntry{}, fmt.Errorf("expected date and hours, got %q", fields)
	}
	day, month, err := parseDate(fields[0])
	if err != nil {
		return ledger.DatedEntry{}, err
	}

	hours, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(fields[1]), ",", ".", 1))
	if err != nil {
		return ledger.DatedEntry{}, fmt.Errorf("invalid hours %q", fields[1])
	}
	seconds := hours.Mul(decimal.NewFromInt(3600)).IntPart()

	var description string
	if len(fields) > 2 {
		description = fields[2]
	}

	e := ledger.DatedEntry{
		Year:  year,
		Month: month,
		Entry: ledger.Entry{Tag: Tag, Day: day, Duration: ledger.Int64(seconds)},
	}
	if m := fromTo.FindString(description); m != "" {
		fs, ts, _ := strings.Cut(m, "-")
		from, err := clock(fs, year, month, day, loc)
		if err != nil {
			return ledger.DatedEntry{}, err
		}
		to, err := clock(ts, year, month, day, loc)
		if err != nil {
			return ledger.DatedEntry{}, err
		}
		e.From = ledger.Int64(from)
		e.To = ledger.Int64(to)
		description = strings.TrimSpace(description[len(m):])
	}
	e.Description = description
	return e, nil
}

// parseDate parses "DD.MM." into day and month.
func parseDate(s string) (int, time.Month, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid date %q, want DD.MM.", s)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid day in %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month in %q", s)
	}
	return day, time.Month(month), nil
}

// clock turns "8", "8:30" or "08:30" on the given day into a Unix timestamp.
func clock(s string, year int, month time.Month, day int, loc *time.Location) (int64, error) {
	hs, ms, _ := strings.Cut(s, ":")
	hour, err := strconv.Atoi(hs)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	minute := 0
	if ms != "" {
		if minute, err = strconv.Atoi(ms); err != nil {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc).Unix(), nil
}
