package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Tiliavir/tick/internal/lib/sl"
)

// Config is the root configuration for tick, stored in ~/.tick/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Ledger  LedgerConfig  `json:"ledger"`
	Outlook OutlookConfig `json:"outlook"`
}

// LedgerConfig holds the opening balances of the first month of a chain
// and the working time model.
type LedgerConfig struct {
	// State is the jurisdiction whose holidays reduce the working days,
	// "DE" for nationwide holidays only, empty for none.
	State string `json:"state" env:"TICK_STATE" validate:"omitempty,len=2,alpha"`
	// HoursWorthWorkingDay is the length of a working day in hours.
	HoursWorthWorkingDay float64 `json:"hours_worth_working_day" env:"TICK_HOURS_PER_DAY" validate:"gt=0,lte=24"`
	// HolidaysLeft is the vacation allowance in days the first month opens with.
	HolidaysLeft int `json:"holidays_left" env:"TICK_HOLIDAYS_LEFT"`
	// WorkingHoursAccount is the overtime in hours the first month opens with.
	WorkingHoursAccount float64 `json:"working_hours_account" env:"TICK_WORKING_HOURS_ACCOUNT"`
	// ArchiveDir holds the month snapshots. Empty = ~/.tick/archive.
	ArchiveDir string `json:"archive_dir" env:"TICK_ARCHIVE_DIR"`
}

// HoursPerDay returns HoursWorthWorkingDay as a decimal.
func (c LedgerConfig) HoursPerDay() decimal.Decimal {
	return decimal.NewFromFloat(c.HoursWorthWorkingDay)
}

// AccountSeconds returns the opening working hours account in seconds.
func (c LedgerConfig) AccountSeconds() decimal.Decimal {
	return decimal.NewFromFloat(c.WorkingHoursAccount).Mul(decimal.NewFromInt(3600))
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id" env:"TICK_OUTLOOK_TENANT_ID" validate:"required"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id" env:"TICK_OUTLOOK_CLIENT_ID" validate:"required"`
	// Tag is the entry tag given to imported Outlook events.
	Tag string `json:"tag" env:"TICK_OUTLOOK_TAG" validate:"required"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `json:"timezone" env:"TICK_OUTLOOK_TIMEZONE"`
}

const (
	// DefaultHoursWorthWorkingDay is the working day length used when none is configured.
	DefaultHoursWorthWorkingDay = 4
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration. Replace with your own registered app ID for
	// organisational or production deployments.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultTag is the tag given to imported events.
	DefaultTag = "e"
)

var validate = validator.New()

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		Ledger: LedgerConfig{
			HoursWorthWorkingDay: DefaultHoursWorthWorkingDay,
		},
		Outlook: OutlookConfig{
			TenantID: DefaultTenantID,
			ClientID: DefaultClientID,
			Tag:      DefaultTag,
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// tick configuration – ~/.tick/config.json
//
// Every value can be overridden by a TICK_* environment variable (also read
// from a .env file in the working directory) and by command line flags.
{
  // ── Ledger ───────────────────────────────────────────────────────────────
  "ledger": {
    // German state whose public holidays reduce the working days, e.g. "HE".
    // "DE" counts nationwide holidays only; empty counts every weekday.
    "state": "",

    // Hours a working day is worth. Env: TICK_HOURS_PER_DAY
    "hours_worth_working_day": 4,

    // Vacation days and overtime hours the first month of a log opens with.
    "holidays_left": 0,
    "working_hours_account": 0,

    // Directory of archived month snapshots. Empty = ~/.tick/archive
    "archive_dir": ""
  },

  // ── Microsoft Graph / Outlook calendar import ────────────────────────────
  "outlook": {
    // Azure AD tenant ID.
    // • "common"  – personal Microsoft accounts and any organisation (default)
    // • Your organisation's tenant GUID, e.g. "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
    "tenant_id": "common",

    // Azure application (client) ID used for the OAuth2 device code flow.
    // The built-in value is the public Azure CLI app – no app registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",

    // Entry tag written for imported calendar events.
    "tag": "e",

    // IANA timezone for interpreting calendar event times, e.g. "Europe/Berlin".
    // Leave empty to use UTC. Can be overridden with: tick outlook import --timezone <tz>
    "timezone": ""
  }
}
`

// DefaultPath returns the path to ~/.tick/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tick", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config at path (the default path when empty), creating it
// with annotated defaults on first run. A .env file in the working directory
// is loaded, TICK_* environment variables override file values, and the
// result is validated.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), err
		}
		path = p
	}

	cfg, err := readFile(path)
	if err != nil {
		return Default(), err
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Default(), fmt.Errorf("reading environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Default(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func readFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			slog.Warn("could not create config file", slog.String("path", path), sl.Err(writeErr))
		}
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	def := Default()
	if cfg.Ledger.HoursWorthWorkingDay == 0 {
		cfg.Ledger.HoursWorthWorkingDay = def.Ledger.HoursWorthWorkingDay
	}
	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = def.Outlook.TenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = def.Outlook.ClientID
	}
	if cfg.Outlook.Tag == "" {
		cfg.Outlook.Tag = def.Outlook.Tag
	}
	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
