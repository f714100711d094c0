package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tick/internal/msgraph"
	"github.com/Tiliavir/tick/internal/timecalc"
)

var (
	outlookFrom   string
	outlookTo     string
	outlookMonth  string
	outlookOut    string
	outlookDryRun bool
	outlookTZ     string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import Outlook calendar events into a CSV log",
	Long: `Import fetches busy calendar events from Microsoft Graph and merges them
into the log given with --out. Events already in the log are skipped, so
the import can be repeated. Without a range the current day is imported.`,
	Args: cobra.NoArgs,
	RunE: runOutlookImport,
}

func init() {
	outlookImportCmd.Flags().StringVar(&outlookFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookImportCmd.Flags().StringVar(&outlookTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookImportCmd.Flags().StringVar(&outlookMonth, "month", "", "Import a whole month (YYYY-MM)")
	outlookImportCmd.Flags().StringVarP(&outlookOut, "out", "o", "", "CSV log to merge the events into")
	outlookImportCmd.Flags().BoolVar(&outlookDryRun, "dry-run", false, "Print planned operations without writing")
	outlookImportCmd.Flags().StringVar(&outlookTZ, "timezone", "", "IANA timezone for event times (e.g. Europe/Berlin)")
	_ = outlookImportCmd.MarkFlagRequired("out")
	outlookCmd.AddCommand(outlookImportCmd)
}

// importRange resolves the --month, --from and --to flags against now.
func importRange(now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	now = now.In(loc)
	switch {
	case outlookMonth != "":
		year, month, err := timecalc.ParseMonth(outlookMonth)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from, to := timecalc.MonthRange(year, month, loc)
		return from, to, nil

	case outlookFrom != "" || outlookTo != "":
		if outlookFrom == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
		}
		from, err := time.ParseInLocation("2006-01-02", outlookFrom, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value %q: %w", outlookFrom, err)
		}
		to := timecalc.EndOfDay(now)
		if outlookTo != "" {
			t, err := time.ParseInLocation("2006-01-02", outlookTo, loc)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value %q: %w", outlookTo, err)
			}
			to = timecalc.EndOfDay(t)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", outlookTo, outlookFrom)
		}
		return from, to, nil
	}
	return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
}

func runOutlookImport(cmd *cobra.Command, args []string) error {
	timezone := app.cfg.Outlook.Timezone
	if outlookTZ != "" {
		timezone = outlookTZ
	}
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
		loc = l
	}

	from, to, err := importRange(app.now, loc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	dryTag := ""
	if outlookDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Importing Outlook events (%s → %s)%s...\n\n",
		from.Format("2006-01-02"), to.Format("2006-01-02"), dryTag)

	ctx := cmd.Context()
	store, err := msgraph.DefaultTokenStore()
	if err != nil {
		return err
	}
	auth := &msgraph.Authenticator{
		Config: msgraph.OAuthConfig(app.cfg.Outlook.TenantID, app.cfg.Outlook.ClientID),
		Store:  store,
		Prompt: cmd.ErrOrStderr(),
		Log:    app.log,
	}
	tok, err := auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	client := msgraph.NewClient(ctx, app.log, store, tok, auth.Config)

	events, err := client.GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	result, err := msgraph.SyncEvents(events, msgraph.SyncOptions{
		LogPath:  outlookOut,
		Timezone: timezone,
		Tag:      app.cfg.Outlook.Tag,
		DryRun:   outlookDryRun,
		Out:      out,
	})
	if err != nil {
		return dataError(err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d imported\n", result.Imported)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(out, "  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Fprintf(out, "  %d errors\n", result.Errors)
		return dataError(fmt.Errorf("%d event(s) could not be imported", result.Errors))
	}
	return nil
}
