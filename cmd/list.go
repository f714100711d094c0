package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/timecalc"
)

var listMonth string

var listCmd = &cobra.Command{
	Use:   "list <log.csv>...",
	Short: "List the entries of a month",
	Long: `List the entries of a month grouped by ISO week. Without --month the
last recorded month is listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listMonth, "month", "", "Month to list (YYYY-MM)")
}

func runList(cmd *cobra.Command, args []string) error {
	chain, err := buildChain(cmd.Context(), args)
	if err != nil {
		return err
	}

	var m *ledger.Month
	if listMonth == "" {
		m = chain.Last()
	} else {
		months, err := selectMonths(chain, listMonth)
		if err != nil {
			return err
		}
		m = months[0]
	}
	if m == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No entries found.")
		return nil
	}

	printList(cmd.OutOrStdout(), m.Key(), m.Records(), time.Local)
	return nil
}

// printList groups the records of a month by ISO week and prints them.
// Control records appear under a "control" heading.
func printList(w io.Writer, k ledger.Key, records []ledger.Record, loc *time.Location) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}

	var currentWeek string
	for _, r := range records {
		week := "control"
		if r.Day > 0 {
			week = timecalc.ISOWeekLabel(time.Date(k.Year, k.Month, r.Day, 12, 0, 0, 0, time.UTC))
		}
		if week != currentWeek {
			fmt.Fprintln(w, week)
			currentWeek = week
		}

		span := ""
		if r.From != nil && r.To != nil {
			span = fmt.Sprintf(" %s–%s", timecalc.FormatClock(*r.From, loc), timecalc.FormatClock(*r.To, loc))
		}
		desc := ""
		if r.Description != "" {
			desc = "  " + r.Description
		}
		fmt.Fprintf(w, "  %02d.%02d. %s%s (%s)%s\n",
			r.Day, int(k.Month), r.Tag, span, timecalc.FormatDuration(r.Duration), desc)
	}
}
