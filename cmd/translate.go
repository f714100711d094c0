package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/Tiliavir/tick/internal/csvlog"
	"github.com/Tiliavir/tick/internal/ledger"
	"github.com/Tiliavir/tick/internal/legacy"
)

var (
	translateOut      string
	translateEncoding string
	translateYear     int
)

var translateCmd = &cobra.Command{
	Use:   "translate <legacy.csv>...",
	Short: "Translate legacy semicolon protocols into the CSV log format",
	Long: `Translate reads protocol files of the old time sheet (DD.MM.;hours;description)
and writes their rows as log entries. The year is taken from the file name
(protocol.12-09.csv is 2012) unless --year is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().StringVarP(&translateOut, "out", "o", "", "Write the log to this file instead of stdout")
	translateCmd.Flags().StringVar(&translateEncoding, "encoding", "utf-8", "Input encoding: utf-8, latin1, cp1252")
	translateCmd.Flags().IntVar(&translateYear, "year", 0, "Year of the rows (default: from the file name)")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	var all []ledger.DatedEntry
	for _, path := range args {
		entries, err := translateFile(path)
		if err != nil {
			return dataError(fmt.Errorf("%s: %w", path, err))
		}
		all = append(all, entries...)
	}

	if translateOut == "" {
		return csvlog.Write(cmd.OutOrStdout(), all)
	}
	if err := csvlog.WriteFile(translateOut, all); err != nil {
		return dataError(err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Translated %d entries from %d file(s) to %s\n", len(all), len(args), translateOut)
	return nil
}

func translateFile(path string) (entries []ledger.DatedEntry, err error) {
	year := translateYear
	if year == 0 {
		if year, err = legacy.YearFromFilename(path); err != nil {
			return nil, fmt.Errorf("%w; pass --year", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	return legacy.Translate(f, legacy.Options{Year: year, Encoding: translateEncoding})
}
