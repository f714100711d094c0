package cmd

import (
	"bytes"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/report"
	"github.com/Tiliavir/tick/internal/timecalc"
)

var (
	reportMonth string
	reportColor bool
	reportXLSX  string
)

var reportCmd = &cobra.Command{
	Use:   "report <log.csv>...",
	Short: "Show the monthly report of the logs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Only report this month (YYYY-MM)")
	reportCmd.Flags().BoolVar(&reportColor, "color", false, "Color balances")
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "Write the report as an xlsx workbook to this file")
}

func runReport(cmd *cobra.Command, args []string) error {
	chain, err := buildChain(cmd.Context(), args)
	if err != nil {
		return err
	}
	months, err := selectMonths(chain, reportMonth)
	if err != nil {
		return err
	}
	recs := exportAll(months)

	if reportXLSX != "" {
		var buf bytes.Buffer
		if err := report.Workbook(&buf, recs, report.WorkbookOptions{
			Generated: app.now,
			Version:   Version,
		}); err != nil {
			return dataError(err)
		}
		if err := atomic.WriteFile(reportXLSX, &buf); err != nil {
			return dataError(fmt.Errorf("writing %s: %w", reportXLSX, err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d month(s) to %s\n", len(recs), reportXLSX)
		return nil
	}

	return report.TextAll(cmd.OutOrStdout(), recs, report.TextOptions{Color: reportColor})
}

func parseKey(s string) (ledger.Key, error) {
	year, month, err := timecalc.ParseMonth(s)
	if err != nil {
		return ledger.Key{}, err
	}
	return ledger.Key{Year: year, Month: month}, nil
}
