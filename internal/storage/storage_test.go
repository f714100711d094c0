package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/storage"
)

func record(year int, month time.Month, hours int64) ledger.MonthRecord {
	return ledger.MonthRecord{
		Year:                     year,
		Month:                    month,
		State:                    "HE",
		HoursWorthWorkingDay:     decimal.NewFromInt(8),
		HolidaysLeftBegin:        20,
		WorkingHoursAccountBegin: decimal.RequireFromString("-1800.5"),
		WorkingHours:             hours,
		Records: []ledger.Record{
			{Tag: "e", Day: 2, Duration: hours, Description: "work"},
		},
	}
}

func TestLoadNotExist(t *testing.T) {
	_, err := storage.Load(t.TempDir(), ledger.Key{Year: 2012, Month: time.May})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Load on missing file: err = %v, want ErrNotFound", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	base := t.TempDir()
	rec := record(2012, time.May, 3600)

	if err := storage.Save(base, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "2012", "05.json")); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	loaded, err := storage.Load(base, rec.Key())
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if loaded.WorkingHours != 3600 {
		t.Errorf("WorkingHours = %d, want 3600", loaded.WorkingHours)
	}
	if !loaded.WorkingHoursAccountBegin.Equal(rec.WorkingHoursAccountBegin) {
		t.Errorf("WorkingHoursAccountBegin = %s, want %s", loaded.WorkingHoursAccountBegin, rec.WorkingHoursAccountBegin)
	}
	if len(loaded.Records) != 1 || loaded.Records[0].Description != "work" {
		t.Errorf("Records = %+v", loaded.Records)
	}

	// Saving again replaces the snapshot.
	if err := storage.Save(base, record(2012, time.May, 7200)); err != nil {
		t.Fatalf("Save (replace): %v", err)
	}
	loaded, err = storage.Load(base, rec.Key())
	if err != nil {
		t.Fatal(err)
	}
	if loaded.WorkingHours != 7200 {
		t.Errorf("WorkingHours after replace = %d, want 7200", loaded.WorkingHours)
	}
}

func TestLoadCorrupt(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "2012", "05.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := storage.Load(base, ledger.Key{Year: 2012, Month: time.May})
	if err == nil {
		t.Fatal("expected error for corrupt JSON, got nil")
	}
	if _, err2 := os.Stat(path + ".corrupt"); os.IsNotExist(err2) {
		t.Error("expected backup file to exist after corrupt JSON")
	}
}

func TestLoadAllAndRange(t *testing.T) {
	base := t.TempDir()
	recs := []ledger.MonthRecord{
		record(2013, time.January, 1),
		record(2012, time.November, 2),
		record(2012, time.March, 3),
	}
	if err := storage.SaveAll(base, recs); err != nil {
		t.Fatal(err)
	}
	// Not part of the archive.
	if err := os.WriteFile(filepath.Join(base, "2012", "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	all, err := storage.LoadAll(base)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	want := []ledger.Key{
		{Year: 2012, Month: time.March},
		{Year: 2012, Month: time.November},
		{Year: 2013, Month: time.January},
	}
	if len(all) != len(want) {
		t.Fatalf("LoadAll returned %d months, want %d", len(all), len(want))
	}
	for i, k := range want {
		if all[i].Key() != k {
			t.Errorf("LoadAll[%d] = %s, want %s", i, all[i].Key(), k)
		}
	}

	ranged, err := storage.LoadRange(base, ledger.Key{Year: 2012, Month: time.April}, ledger.Key{Year: 2013, Month: time.January})
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(ranged) != 2 || ranged[0].Key() != want[1] {
		t.Errorf("LoadRange = %d months", len(ranged))
	}
}

func TestLoadAllEmptyBase(t *testing.T) {
	recs, err := storage.LoadAll(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("LoadAll on missing base: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}

func TestPrune(t *testing.T) {
	base := t.TempDir()
	for _, rec := range []ledger.MonthRecord{
		record(2012, time.September, 60),
		record(2012, time.November, 60),
		record(2013, time.January, 60),
	} {
		if err := storage.Save(base, rec); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := storage.Prune(base, []ledger.Key{{Year: 2012, Month: time.September}})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	want := []ledger.Key{{Year: 2012, Month: time.November}, {Year: 2013, Month: time.January}}
	if len(removed) != len(want) || removed[0] != want[0] || removed[1] != want[1] {
		t.Errorf("Prune removed %v, want %v", removed, want)
	}

	keys, err := storage.Keys(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != (ledger.Key{Year: 2012, Month: time.September}) {
		t.Errorf("Keys after Prune = %v", keys)
	}
	if _, err := os.Stat(filepath.Join(base, "2013")); !os.IsNotExist(err) {
		t.Errorf("empty year directory kept: %v", err)
	}
}
