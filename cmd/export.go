package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Tiliavir/tick/internal/report"
)

var (
	exportFormat string
	exportMonth  string
)

var exportCmd = &cobra.Command{
	Use:   "export <log.csv>...",
	Short: "Export the months of the logs to stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, yaml, csv")
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Only export this month (YYYY-MM)")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	chain, err := buildChain(cmd.Context(), args)
	if err != nil {
		return err
	}
	months, err := selectMonths(chain, exportMonth)
	if err != nil {
		return err
	}
	return report.Export(cmd.OutOrStdout(), exportAll(months), format)
}
