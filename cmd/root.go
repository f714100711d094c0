package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tick/internal/config"
	"github.com/Tiliavir/tick/internal/csvlog"
	"github.com/Tiliavir/tick/internal/holidays"
	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/storage"
)

// Version is printed in workbook footers and by --version.
var Version = "dev"

var (
	configPath   string
	verbose      bool
	stateFlag    string
	hoursFlag    float64
	holidaysFlag int
	accountFlag  float64
	nowFlag      string
)

// app is the state shared by all subcommands, set up before each run.
var app struct {
	cfg      config.Config
	log      *slog.Logger
	calendar *holidays.Calendar
	now      time.Time
}

var rootCmd = &cobra.Command{
	Use:   "tick",
	Short: "tick – a monthly working-hours ledger",
	Long: `tick reads CSV work logs and keeps a chain of monthly balances:
the working hours account against the monthly target and the holidays left.
Each month opens with the closing balances of the month recorded before it.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// exitError carries the process exit code for an error: 1 for usage and
// authentication errors, 2 for data and storage errors.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func dataError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: 2, err: err}
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.tick/config.json)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	pf.StringVar(&stateFlag, "state", "", `German state for holidays, "DE" for nationwide only`)
	pf.Float64Var(&hoursFlag, "hours-per-day", 0, "Hours a working day is worth")
	pf.IntVar(&holidaysFlag, "holidays", 0, "Holidays left at the start of the first month")
	pf.Float64Var(&accountFlag, "account", 0, "Working hours account in hours at the start of the first month")
	pf.StringVar(&nowFlag, "now", "", "Current time (YYYY-MM-DD or RFC 3339) instead of the system clock")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(outlookCmd)
}

// setup loads the configuration, applies flag overrides and creates the
// logger.
func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	app.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(app.log)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	if pf.Changed("state") {
		cfg.Ledger.State = stateFlag
	}
	if pf.Changed("hours-per-day") {
		if hoursFlag <= 0 {
			return fmt.Errorf("--hours-per-day must be positive, got %v", hoursFlag)
		}
		cfg.Ledger.HoursWorthWorkingDay = hoursFlag
	}
	if pf.Changed("holidays") {
		cfg.Ledger.HolidaysLeft = holidaysFlag
	}
	if pf.Changed("account") {
		cfg.Ledger.WorkingHoursAccount = accountFlag
	}
	if cfg.Ledger.ArchiveDir == "" {
		dir, err := storage.BaseDir()
		if err != nil {
			return err
		}
		cfg.Ledger.ArchiveDir = dir
	}
	app.cfg = cfg

	app.now = time.Now()
	if nowFlag != "" {
		if app.now, err = parseNow(nowFlag); err != nil {
			return err
		}
	}
	app.calendar = holidays.New()

	app.log.Debug("configuration loaded",
		slog.String("state", cfg.Ledger.State),
		slog.Float64("hours_per_day", cfg.Ledger.HoursWorthWorkingDay),
		slog.Int("holidays_left", cfg.Ledger.HolidaysLeft),
		slog.Float64("account_hours", cfg.Ledger.WorkingHoursAccount))
	return nil
}

func parseNow(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now value %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// builder returns a chain builder opened with the configured balances.
func builder() *ledger.Builder {
	return &ledger.Builder{
		Calendar:             app.calendar,
		HolidaysLeft:         app.cfg.Ledger.HolidaysLeft,
		WorkingHoursAccount:  app.cfg.Ledger.AccountSeconds(),
		HoursWorthWorkingDay: app.cfg.Ledger.HoursPerDay(),
		State:                app.cfg.Ledger.State,
		Logger:               app.log,
	}
}

// buildChain reads the logs and builds their chain of months.
func buildChain(ctx context.Context, paths []string) (ledger.Chain, error) {
	entries, err := csvlog.ReadFiles(ctx, paths...)
	if err != nil {
		return nil, dataError(err)
	}
	chain, err := builder().Build(entries)
	if err != nil {
		return nil, dataError(err)
	}
	return chain, nil
}

// selectMonths returns the months of chain, or only the one named by month
// (YYYY-MM) when it is set.
func selectMonths(chain ledger.Chain, month string) ([]*ledger.Month, error) {
	if month == "" {
		return chain.Months(), nil
	}
	k, err := parseKey(month)
	if err != nil {
		return nil, err
	}
	m := chain.Month(k.Year, k.Month)
	if m == nil {
		return nil, dataError(fmt.Errorf("no entries for %s", k))
	}
	return []*ledger.Month{m}, nil
}

func exportAll(months []*ledger.Month) []ledger.MonthRecord {
	recs := make([]ledger.MonthRecord, len(months))
	for i, m := range months {
		recs[i] = m.Export()
	}
	return recs
}
