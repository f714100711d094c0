package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/tick/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status <log.csv>...",
	Short: "Show the closing balances of the last recorded month",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	chain, err := buildChain(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	last := chain.Last()
	if last == nil {
		fmt.Fprintln(out, "No entries found.")
		return nil
	}

	fmt.Fprintf(out, "Month %s (%d month(s) recorded)\n", last.Key(), len(chain.Months()))
	fmt.Fprintf(out, "  Worked:   %s\n", timecalc.FormatDuration(last.WorkingHours()))
	fmt.Fprintf(out, "  Target:   %sh\n", last.MonthlyTarget().StringFixed(1))
	fmt.Fprintf(out, "  Balance:  %s\n", timecalc.FormatHours(last.WorkingHoursBalance(), 1))
	fmt.Fprintf(out, "  Holidays: %dd left (%d spent)\n", last.HolidaysLeft(), last.HolidaysSpent())

	if last.WorkingHoursBalance().LessThan(decimal.Zero) {
		fmt.Fprintf(out, "%s behind target.\n", timecalc.FormatDuration(last.WorkingHoursBalance().Neg().IntPart()))
	}
	return nil
}
