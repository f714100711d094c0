// Package storage archives exported months as JSON snapshots, one file per
// month under <base>/<YYYY>/<MM>.json.
package storage

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/Tiliavir/tick/internal/ledger"
)

// ErrNotFound is returned by Load when no snapshot exists for a month.
var ErrNotFound = errors.New("no archived month")

// BaseDir returns the default archive directory (~/.tick/archive).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tick", "archive"), nil
}

func monthFilePath(base string, k ledger.Key) string {
	return filepath.Join(base, fmt.Sprintf("%04d", k.Year), fmt.Sprintf("%02d.json", int(k.Month)))
}

// Load reads the snapshot of month k.
func Load(base string, k ledger.Key) (ledger.MonthRecord, error) {
	path := monthFilePath(base, k)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ledger.MonthRecord{}, fmt.Errorf("%w %s", ErrNotFound, k)
	}
	if err != nil {
		return ledger.MonthRecord{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var rec ledger.MonthRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return ledger.MonthRecord{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	if rec.Key() != k {
		return ledger.MonthRecord{}, fmt.Errorf("snapshot %s holds month %s", path, rec.Key())
	}
	return rec, nil
}

// Save atomically writes the snapshot of rec, replacing an older one.
func Save(base string, rec ledger.MonthRecord) error {
	path := monthFilePath(base, rec.Key())
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("storage error writing %s: %w", path, err)
	}
	return nil
}

// SaveAll writes every record; it stops at the first failure.
func SaveAll(base string, recs []ledger.MonthRecord) error {
	for _, rec := range recs {
		if err := Save(base, rec); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists the archived months in chronological order. Files that do not
// follow the YYYY/MM.json layout are ignored.
func Keys(base string) ([]ledger.Key, error) {
	years, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error listing %s: %w", base, err)
	}

	var keys []ledger.Key
	for _, y := range years {
		year, err := strconv.Atoi(y.Name())
		if !y.IsDir() || err != nil || len(y.Name()) != 4 {
			continue
		}
		months, err := os.ReadDir(filepath.Join(base, y.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage error listing %s: %w", y.Name(), err)
		}
		for _, m := range months {
			name, ok := strings.CutSuffix(m.Name(), ".json")
			if !ok || m.IsDir() || len(name) != 2 {
				continue
			}
			month, err := strconv.Atoi(name)
			if err != nil || month < 1 || month > 12 {
				continue
			}
			keys = append(keys, ledger.Key{Year: year, Month: time.Month(month)})
		}
	}
	slices.SortFunc(keys, func(a, b ledger.Key) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return keys, nil
}

// LoadAll loads every archived month in chronological order.
func LoadAll(base string) ([]ledger.MonthRecord, error) {
	keys, err := Keys(base)
	if err != nil {
		return nil, err
	}
	return load(base, keys)
}

// LoadRange loads the archived months in [from, to] inclusive. Months
// without a snapshot are skipped.
func LoadRange(base string, from, to ledger.Key) ([]ledger.MonthRecord, error) {
	keys, err := Keys(base)
	if err != nil {
		return nil, err
	}
	keys = slices.DeleteFunc(keys, func(k ledger.Key) bool {
		return before(k, from) || before(to, k)
	})
	return load(base, keys)
}

func load(base string, keys []ledger.Key) ([]ledger.MonthRecord, error) {
	recs := make([]ledger.MonthRecord, 0, len(keys))
	for _, k := range keys {
		rec, err := Load(base, k)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func before(a, b ledger.Key) bool {
	return a.Year < b.Year || (a.Year == b.Year && a.Month < b.Month)
}

// Prune removes the snapshots of every archived month not in keep and
// returns the removed keys in chronological order.
func Prune(base string, keep []ledger.Key) ([]ledger.Key, error) {
	keys, err := Keys(base)
	if err != nil {
		return nil, err
	}
	var removed []ledger.Key
	for _, k := range keys {
		if slices.Contains(keep, k) {
			continue
		}
		path := monthFilePath(base, k)
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("storage error removing %s: %w", path, err)
		}
		// Drops the year directory once its last month is gone.
		_ = os.Remove(filepath.Dir(path))
		removed = append(removed, k)
	}
	return removed, nil
}
