package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/storage"
)

var archivePrune bool

var archiveCmd = &cobra.Command{
	Use:   "archive <log.csv>...",
	Short: "Store the months of the logs in the archive",
	Long: `Archive builds the chain of the logs and writes one JSON snapshot per
month to the archive directory, replacing older snapshots of the same month.
Snapshots of months no longer in the logs are removed unless --prune=false.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().BoolVar(&archivePrune, "prune", true, "Remove snapshots of months that are not in the logs")
}

func runArchive(cmd *cobra.Command, args []string) error {
	chain, err := buildChain(cmd.Context(), args)
	if err != nil {
		return err
	}
	months := chain.Months()
	if err := ledger.Validate(months); err != nil {
		return dataError(err)
	}

	dir := app.cfg.Ledger.ArchiveDir
	if err := storage.SaveAll(dir, exportAll(months)); err != nil {
		return dataError(err)
	}
	if archivePrune {
		keep := make([]ledger.Key, len(months))
		for i, m := range months {
			keep[i] = m.Key()
		}
		removed, err := storage.Prune(dir, keep)
		if err != nil {
			return dataError(err)
		}
		for _, k := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed stale snapshot %s\n", k)
		}
	}
	app.log.Debug("archived months", slog.String("dir", dir), slog.Int("months", len(months)))
	fmt.Fprintf(cmd.OutOrStdout(), "Archived %d month(s) to %s\n", len(months), dir)
	return nil
}
