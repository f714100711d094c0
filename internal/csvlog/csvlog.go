// Package csvlog reads and writes the comma separated ledger log.
//
// Each line holds one entry:
//
//	tag,year,month,day,duration,from,to,description
//
// Trailing columns may be omitted. Empty or zero duration, from and to
// fields are absent. Lines starting with # are comments, and a first line
// whose first field is "tag" is a header.
package csvlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/natefinch/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/tick/internal/ledger"
)

// Header is the column header written by Write.
var Header = []string{"tag", "year", "month", "day", "duration", "from", "to", "description"}

const minFields = 4

// Row is a parsed log line before it becomes a ledger entry.
type Row struct {
	Tag         string `validate:"required"`
	Year        int    `validate:"min=1"`
	Month       int    `validate:"min=1,max=12"`
	Day         int    `validate:"min=0,max=31"`
	Duration    *int64
	From        *int64
	To          *int64
	Description string
}

// DatedEntry converts r into a ledger entry.
func (r Row) DatedEntry() ledger.DatedEntry {
	return ledger.DatedEntry{
		Year:  r.Year,
		Month: time.Month(r.Month),
		Entry: ledger.Entry{
			Tag:         r.Tag,
			Day:         r.Day,
			Duration:    r.Duration,
			From:        r.From,
			To:          r.To,
			Description: r.Description,
		},
	}
}

var validate = validator.New()

// Read parses a log from r. name is used in error messages.
func Read(r io.Reader, name string) ([]ledger.DatedEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var entries []ledger.DatedEntry
	first := true
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		if first && strings.EqualFold(strings.TrimSpace(fields[0]), "tag") {
			first = false
			continue
		}
		first = false

		row, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, line, err)
		}
		entries = append(entries, row.DatedEntry())
	}
}

func parseRow(fields []string) (Row, error) {
	if len(fields) < minFields || len(fields) > len(Header) {
		return Row{}, fmt.Errorf("expected %d to %d fields, got %d", minFields, len(Header), len(fields))
	}
	for len(fields) < len(Header) {
		fields = append(fields, "")
	}

	var (
		row Row
		err error
	)
	row.Tag = strings.TrimSpace(fields[0])
	if row.Year, err = parseInt(fields[1], "year"); err != nil {
		return Row{}, err
	}
	if row.Month, err = parseInt(fields[2], "month"); err != nil {
		return Row{}, err
	}
	if row.Day, err = parseInt(fields[3], "day"); err != nil {
		return Row{}, err
	}
	if row.Duration, err = parseOptional(fields[4], "duration"); err != nil {
		return Row{}, err
	}
	if row.From, err = parseOptional(fields[5], "from"); err != nil {
		return Row{}, err
	}
	if row.To, err = parseOptional(fields[6], "to"); err != nil {
		return Row{}, err
	}
	row.Description = fields[7]

	if err := validate.Struct(row); err != nil {
		return Row{}, fmt.Errorf("invalid row: %w", err)
	}
	return row, nil
}

func parseInt(s, field string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, s)
	}
	return v, nil
}

// parseOptional treats empty and zero values as absent, as the log has
// always written unset timestamps and durations as 0 or nothing.
func parseOptional(s, field string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Whole numbers written as floats ("3600.0") are accepted, fractions
		// are not.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
			return nil, fmt.Errorf("invalid %s %q: want whole seconds", field, s)
		}
		v = int64(f)
	}
	if v == 0 {
		return nil, nil
	}
	return &v, nil
}

// ReadFile reads the log at path; "-" reads standard input.
func ReadFile(path string) (entries []ledger.DatedEntry, err error) {
	if path == "-" {
		return Read(os.Stdin, "stdin")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return Read(f, path)
}

// ReadFiles reads several logs concurrently and concatenates their entries
// in argument order.
func ReadFiles(ctx context.Context, paths ...string) ([]ledger.DatedEntry, error) {
	results := make([][]ledger.DatedEntry, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, err := ReadFile(path)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []ledger.DatedEntry
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// Write writes entries with a header line.
func Write(w io.Writer, entries []ledger.DatedEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Tag,
			strconv.Itoa(e.Year),
			strconv.Itoa(int(e.Month)),
			strconv.Itoa(e.Day),
			formatOptional(e.Duration),
			formatOptional(e.From),
			formatOptional(e.To),
			e.Description,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatOptional(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// WriteFile atomically replaces the log at path with entries.
func WriteFile(path string, entries []ledger.DatedEntry) error {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing log %s: %w", path, err)
	}
	return nil
}
