package msgraph_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/tick/internal/csvlog"
	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/msgraph"
)

func makeEvent(id, subject, start, end string) msgraph.CalendarEvent {
	return msgraph.CalendarEvent{
		ID:          id,
		Subject:     subject,
		Sensitivity: "normal",
		ShowAs:      "busy",
		Start:       msgraph.DateTimeTimeZone{DateTime: start, TimeZone: "UTC"},
		End:         msgraph.DateTimeTimeZone{DateTime: end, TimeZone: "UTC"},
	}
}

func readLog(t *testing.T, path string) []ledger.DatedEntry {
	t.Helper()
	entries, err := csvlog.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	return entries
}

func TestMapEventToEntry(t *testing.T) {
	event := makeEvent("ext-id-1", "Sprint Planning", "2026-02-27T09:00:00", "2026-02-27T10:30:00")
	entry, err := msgraph.MapEventToEntry(event, "UTC", "")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if entry.Year != 2026 || entry.Month != time.February || entry.Day != 27 {
		t.Errorf("date = %d-%d-%d, want 2026-2-27", entry.Year, entry.Month, entry.Day)
	}
	if entry.Tag != msgraph.DefaultTag {
		t.Errorf("Tag = %q, want %q", entry.Tag, msgraph.DefaultTag)
	}
	if entry.Description != "Sprint Planning" {
		t.Errorf("Description = %q, want %q", entry.Description, "Sprint Planning")
	}
	if entry.Duration != nil {
		t.Errorf("Duration = %v, want nil", *entry.Duration)
	}
	if entry.From == nil || entry.To == nil || *entry.To-*entry.From != 5400 {
		t.Errorf("From/To = %v/%v, want 5400 seconds apart", entry.From, entry.To)
	}
	want := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC).Unix()
	if *entry.From != want {
		t.Errorf("From = %d, want %d", *entry.From, want)
	}
}

func TestMapEventToEntry_Timezone(t *testing.T) {
	// 23:30 in Berlin is still the 27th, although it is 22:30 UTC.
	event := makeEvent("tz", "Late call", "2026-02-27T23:30:00", "2026-02-28T00:15:00")
	entry, err := msgraph.MapEventToEntry(event, "Europe/Berlin", "m")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if entry.Day != 27 {
		t.Errorf("Day = %d, want 27", entry.Day)
	}
	if entry.Tag != "m" {
		t.Errorf("Tag = %q, want %q", entry.Tag, "m")
	}
}

func TestMapEventToEntry_WithLocation(t *testing.T) {
	event := makeEvent("ext-id-2", "Standup", "2026-02-27T10:00:00", "2026-02-27T10:15:00")
	event.Location.DisplayName = "Zoom"

	entry, err := msgraph.MapEventToEntry(event, "UTC", "")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if entry.Description != "Standup @ Zoom" {
		t.Errorf("Description = %q, want %q", entry.Description, "Standup @ Zoom")
	}
}

func TestMapEventToEntry_Inverted(t *testing.T) {
	event := makeEvent("inv", "Broken", "2026-02-27T10:00:00", "2026-02-27T09:00:00")
	if _, err := msgraph.MapEventToEntry(event, "UTC", ""); err == nil {
		t.Fatal("expected error for event ending before it starts")
	}
}

func TestSyncEvents_Import(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
	}

	result, err := msgraph.SyncEvents(events, msgraph.SyncOptions{LogPath: path, Timezone: "UTC"})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("Imported = %d, want 1", result.Imported)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}

	entries := readLog(t, path)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Description != "Architecture Board" {
		t.Errorf("Description = %q", entries[0].Description)
	}
}

func TestSyncEvents_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
	}
	opts := msgraph.SyncOptions{LogPath: path, Timezone: "UTC"}

	r1, err := msgraph.SyncEvents(events, opts)
	if err != nil {
		t.Fatalf("first SyncEvents: %v", err)
	}
	if r1.Imported != 1 {
		t.Errorf("first sync: Imported = %d, want 1", r1.Imported)
	}

	r2, err := msgraph.SyncEvents(events, opts)
	if err != nil {
		t.Fatalf("second SyncEvents: %v", err)
	}
	if r2.Imported != 0 {
		t.Errorf("second sync: Imported = %d, want 0 (idempotent)", r2.Imported)
	}
	if r2.Skipped != 1 {
		t.Errorf("second sync: Skipped = %d, want 1", r2.Skipped)
	}
	if n := len(readLog(t, path)); n != 1 {
		t.Fatalf("entries = %d after 2 syncs, want 1", n)
	}
}

func TestSyncEvents_Update(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	event := makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00")
	opts := msgraph.SyncOptions{LogPath: path, Timezone: "UTC"}

	if _, err := msgraph.SyncEvents([]msgraph.CalendarEvent{event}, opts); err != nil {
		t.Fatalf("first SyncEvents: %v", err)
	}

	event.Subject = "Architecture Board (updated)"
	r2, err := msgraph.SyncEvents([]msgraph.CalendarEvent{event}, opts)
	if err != nil {
		t.Fatalf("second SyncEvents: %v", err)
	}
	if r2.Updated != 1 {
		t.Errorf("Updated = %d, want 1", r2.Updated)
	}

	entries := readLog(t, path)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Description != "Architecture Board (updated)" {
		t.Errorf("Description = %q, want updated", entries[0].Description)
	}
}

func TestSyncEvents_SkipFiltered(t *testing.T) {
	opts := msgraph.SyncOptions{LogPath: filepath.Join(t.TempDir(), "log.csv")}

	tests := []struct {
		name  string
		event msgraph.CalendarEvent
	}{
		{
			name: "cancelled",
			event: func() msgraph.CalendarEvent {
				e := makeEvent("c1", "Cancelled", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.IsCancelled = true
				return e
			}(),
		},
		{
			name: "all-day",
			event: func() msgraph.CalendarEvent {
				e := makeEvent("c2", "All Day", "2026-02-27T00:00:00", "2026-02-28T00:00:00")
				e.IsAllDay = true
				return e
			}(),
		},
		{
			name: "private",
			event: func() msgraph.CalendarEvent {
				e := makeEvent("c3", "Private", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.Sensitivity = "private"
				return e
			}(),
		},
		{
			name: "free",
			event: func() msgraph.CalendarEvent {
				e := makeEvent("c4", "Free Block", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.ShowAs = "free"
				return e
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := msgraph.SyncEvents([]msgraph.CalendarEvent{tt.event}, opts)
			if err != nil {
				t.Fatalf("SyncEvents: %v", err)
			}
			if r.Imported != 0 {
				t.Errorf("expected 0 imported for %s event, got %d", tt.name, r.Imported)
			}
		})
	}
}

func TestSyncEvents_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	events := []msgraph.CalendarEvent{
		makeEvent("ext-dry", "Dry Run Event", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
	}

	result, err := msgraph.SyncEvents(events, msgraph.SyncOptions{LogPath: path, DryRun: true})
	if err != nil {
		t.Fatalf("SyncEvents dry-run: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("dry-run Imported = %d, want 1", result.Imported)
	}
	if _, err := csvlog.ReadFile(path); err == nil {
		t.Error("dry-run created the log file")
	}
}

func TestSyncEvents_PreservesManualEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	manual := []ledger.DatedEntry{
		{Year: 2026, Month: time.February, Entry: ledger.Entry{Tag: "e", Day: 27, Duration: ledger.Int64(3600), Description: "manual"}},
		{Year: 2026, Month: time.February, Entry: ledger.Entry{Tag: ledger.TagHoliday, Day: 26}},
	}
	if err := csvlog.WriteFile(path, manual); err != nil {
		t.Fatalf("writing manual entries: %v", err)
	}

	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Meeting", "2026-02-27T11:00:00", "2026-02-27T12:00:00"),
	}
	if _, err := msgraph.SyncEvents(events, msgraph.SyncOptions{LogPath: path, Timezone: "UTC"}); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}

	entries := readLog(t, path)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3 (manual + imported)", len(entries))
	}
	if entries[0].Description != "manual" || entries[1].Tag != ledger.TagHoliday {
		t.Errorf("manual entries changed: %+v", entries[:2])
	}
	if entries[2].Description != "Meeting" {
		t.Errorf("imported entry = %+v", entries[2])
	}
}

func TestGetCalendarViewFollowsNextLink(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Prefer"); got != `outlook.timezone="Europe/Berlin"` {
			t.Errorf("Prefer header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"value":[{"id":"b","subject":"Second"}]}`)
			return
		}
		if r.URL.Path != "/me/calendarView" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintf(w, `{"value":[{"id":"a","subject":"First"}],"@odata.nextLink":"%s/me/calendarView?page=2"}`, srv.URL)
	}))
	defer srv.Close()

	c := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	events, err := c.GetCalendarView(context.Background(), from, from.AddDate(0, 1, 0), "Europe/Berlin")
	if err != nil {
		t.Fatalf("GetCalendarView: %v", err)
	}
	if len(events) != 2 || events[0].Subject != "First" || events[1].Subject != "Second" {
		t.Errorf("events = %+v", events)
	}
}

func TestGetCalendarViewError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	c := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	_, err := c.GetCalendarView(context.Background(), time.Now(), time.Now(), "")
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
