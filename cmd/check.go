package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/storage"
)

var checkArchive bool

var checkCmd = &cobra.Command{
	Use:   "check [<log.csv>...]",
	Short: "Check that every month carries the balances of the month before",
	Long: `Check builds the chain of the given logs, or loads the archived months
with --archive, and reports every month whose opening balances differ from
the closing balances of the month recorded before it.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkArchive, "archive", false, "Check the archived months instead of logs")
}

func runCheck(cmd *cobra.Command, args []string) error {
	var months []*ledger.Month
	switch {
	case checkArchive:
		var err error
		if months, err = loadArchive(app.cfg.Ledger.ArchiveDir); err != nil {
			return err
		}
	case len(args) == 0:
		return fmt.Errorf("no logs given; pass log files or --archive")
	default:
		chain, err := buildChain(cmd.Context(), args)
		if err != nil {
			return err
		}
		months = chain.Months()
	}

	if err := ledger.ValidateAll(months); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "  ✗ %v\n", e)
		}
		return dataError(fmt.Errorf("%d broken link(s) in %d month(s)", len(multierr.Errors(err)), len(months)))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %d month(s) consistent\n", len(months))
	return nil
}

// loadArchive restores the archived months in chronological order.
func loadArchive(dir string) ([]*ledger.Month, error) {
	recs, err := storage.LoadAll(dir)
	if err != nil {
		return nil, dataError(err)
	}
	months := make([]*ledger.Month, 0, len(recs))
	for _, rec := range recs {
		m, err := ledger.Restore(app.calendar, rec)
		if err != nil {
			return nil, dataError(fmt.Errorf("restoring %s: %w", rec.Key(), err))
		}
		months = append(months, m)
	}
	return months, nil
}
