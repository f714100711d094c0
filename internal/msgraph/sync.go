package msgraph

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/Tiliavir/tick/internal/csvlog"
	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/timecalc"
)

// DefaultTag is the entry tag given to imported events.
const DefaultTag = "e"

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	// LogPath is the CSV log the events are merged into.
	LogPath  string
	Timezone string
	Tag      string
	DryRun   bool
	// Out receives one progress line per event. Nil discards them.
	Out io.Writer
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

func location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	if l, err := time.LoadLocation(tz); err == nil {
		return l
	}
	return time.UTC
}

// buildDescription joins subject and location, e.g. "Standup @ Zoom".
func buildDescription(event CalendarEvent) string {
	if event.Location.DisplayName == "" {
		return event.Subject
	}
	return event.Subject + " @ " + event.Location.DisplayName
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	if event.IsCancelled {
		return true
	}
	if event.IsAllDay {
		return true
	}
	if event.Sensitivity == "private" {
		return true
	}
	if event.ShowAs == "free" {
		return true
	}
	if event.Start.DateTime == "" || event.End.DateTime == "" {
		return true
	}
	return false
}

// MapEventToEntry converts a Graph CalendarEvent into a log entry dated by
// its start in timezone. The entry carries from and to, so the ledger derives
// its duration.
func MapEventToEntry(event CalendarEvent, timezone, tag string) (ledger.DatedEntry, error) {
	loc := location(timezone)
	startTime, err := parseGraphTime(event.Start.DateTime, loc)
	if err != nil {
		return ledger.DatedEntry{}, fmt.Errorf("parsing start time: %w", err)
	}
	endTime, err := parseGraphTime(event.End.DateTime, loc)
	if err != nil {
		return ledger.DatedEntry{}, fmt.Errorf("parsing end time: %w", err)
	}
	if !endTime.After(startTime) {
		return ledger.DatedEntry{}, fmt.Errorf("event ends at %s before it starts", endTime.Format(time.RFC3339))
	}
	if tag == "" {
		tag = DefaultTag
	}

	return ledger.DatedEntry{
		Year:  startTime.Year(),
		Month: startTime.Month(),
		Entry: ledger.Entry{
			Tag:         tag,
			Day:         startTime.Day(),
			From:        ledger.Int64(startTime.Unix()),
			To:          ledger.Int64(endTime.Unix()),
			Description: buildDescription(event),
		},
	}, nil
}

// findSlot returns the index of the entry that covers the same interval.
func findSlot(entries []ledger.DatedEntry, e ledger.DatedEntry) int {
	for i, x := range entries {
		if x.From == nil || x.To == nil {
			continue
		}
		if x.Year == e.Year && x.Month == e.Month && x.Day == e.Day &&
			*x.From == *e.From && *x.To == *e.To {
			return i
		}
	}
	return -1
}

// SyncEvents merges Graph events into the CSV log at opts.LogPath. An event
// whose interval is already logged is skipped when its description matches
// and updated otherwise, so repeated syncs do not duplicate entries.
func SyncEvents(events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	entries, err := csvlog.ReadFile(opts.LogPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return result, err
	}

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		entry, err := MapEventToEntry(event, opts.Timezone, opts.Tag)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		dur := timecalc.FormatDuration(*entry.To - *entry.From)

		if i := findSlot(entries, entry); i >= 0 {
			if entries[i].Description == entry.Description {
				fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", event.Subject)
				result.Skipped++
				continue
			}
			entries[i].Description = entry.Description
			fmt.Fprintf(out, "  ↑ Updated:  %s (%s)\n", event.Subject, dur)
			result.Updated++
			continue
		}

		entries = append(entries, entry)
		fmt.Fprintf(out, "  ✓ Imported: %s (%s)\n", event.Subject, dur)
		result.Imported++
	}

	if opts.DryRun || result.Imported+result.Updated == 0 {
		return result, nil
	}
	if err := csvlog.WriteFile(opts.LogPath, entries); err != nil {
		return result, err
	}
	return result, nil
}
