package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/tick/internal/ledger"
)

const sampleLog = `tag,year,month,day,duration,from,to,description
e,2012,9,3,14400,,,fixing the build
h,2012,9,4,,,,vacation
e,2012,11,5,3600,,,planning
`

// run executes the root command with the ledger flags every test shares,
// so flag values left over from earlier runs do not leak into this one.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(dir, "config.json")
	if _, err := os.Stat(cfg); os.IsNotExist(err) {
		data := `{"ledger": {"archive_dir": ` + jsonString(filepath.Join(dir, "archive")) + `}}`
		require.NoError(t, os.WriteFile(cfg, []byte(data), 0o600))
	}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{
		"--config", cfg,
		"--state", "",
		"--hours-per-day", "4",
		"--holidays", "10",
		"--account", "1",
	}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func writeLog(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "log.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o600))
	return path
}

func TestExportCSVCarriesBalanceAcrossGap(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "export", "--format", "csv", "--month", "", writeLog(t, dir))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2012,9,,10,1,9,3600,28800,32400,87.0000,-280800.0000", lines[1])
	assert.Equal(t, "2012,11,,9,0,9,-280800,3600,-277200,87.0000,-590400.0000", lines[2])
}

func TestReportMonth(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "report", "--month", "2012-11", "--xlsx", "", writeLog(t, dir))
	require.NoError(t, err)
	assert.Contains(t, out, "************************* 2012-11 *************************")
	assert.Contains(t, out, "WorkingHoursAccountBeginMonth: -78.0h (-280800s)")
	assert.NotContains(t, out, "2012-09")

	_, err = run(t, dir, "report", "--month", "2012-10", "--xlsx", "", writeLog(t, dir))
	assert.Error(t, err)
}

func TestReportWorkbook(t *testing.T) {
	dir := t.TempDir()
	xlsx := filepath.Join(dir, "report.xlsx")
	out, err := run(t, dir, "report", "--month", "", "--xlsx", xlsx, writeLog(t, dir))
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 month(s)")

	info, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestArchiveAndCheck(t *testing.T) {
	dir := t.TempDir()
	log := writeLog(t, dir)

	out, err := run(t, dir, "archive", log)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 2 month(s)")
	_, err = os.Stat(filepath.Join(dir, "archive", "2012", "11.json"))
	require.NoError(t, err)

	out, err = run(t, dir, "check", "--archive", log)
	require.NoError(t, err)
	assert.Contains(t, out, "2 month(s) consistent")

	out, err = run(t, dir, "check", "--archive=false", log)
	require.NoError(t, err)
	assert.Contains(t, out, "2 month(s) consistent")
}

func TestArchivePrunesRemovedMonths(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "archive", writeLog(t, dir))
	require.NoError(t, err)

	september := filepath.Join(dir, "september.csv")
	require.NoError(t, os.WriteFile(september, []byte("e,2012,9,3,14400\nh,2012,9,4\n"), 0o600))
	out, err := run(t, dir, "archive", september)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed stale snapshot 2012-11")

	_, err = os.Stat(filepath.Join(dir, "archive", "2012", "11.json"))
	assert.True(t, os.IsNotExist(err))

	out, err = run(t, dir, "check", "--archive")
	require.NoError(t, err)
	assert.Contains(t, out, "1 month(s) consistent")
}

func TestStatus(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "status", writeLog(t, dir))
	require.NoError(t, err)
	assert.Contains(t, out, "Month 2012-11 (2 month(s) recorded)")
	assert.Contains(t, out, "Balance:  -164.0h")
	assert.Contains(t, out, "Holidays: 9d left (0 spent)")
}

func TestInvalidLogIsDataError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("e,2013,2,29,60\n"), 0o600))

	_, err := run(t, dir, "status", path)
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.code)
	assert.ErrorIs(t, err, ledger.ErrInvalidDate)
}

func TestTranslate(t *testing.T) {
	dir := t.TempDir()
	legacyFile := filepath.Join(dir, "protocol.12-09.csv")
	require.NoError(t, os.WriteFile(legacyFile, []byte("Datum;Stunden;Tätigkeit\n03.09.;1,5;review\n"), 0o600))

	out, err := run(t, dir, "translate", "--out", "", "--year", "0", "--encoding", "utf-8", legacyFile)
	require.NoError(t, err)
	assert.Equal(t, "tag,year,month,day,duration,from,to,description\ne,2012,9,3,5400,,,review\n", out)
}

func TestPrintList(t *testing.T) {
	var buf bytes.Buffer
	k := ledger.Key{Year: 2026, Month: time.March}
	from := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC).Unix()
	printList(&buf, k, []ledger.Record{
		{Tag: ledger.TagCarryover, Day: 0, Duration: 3600},
		{Tag: "e", Day: 2, Duration: 5400, From: &from, To: ledger.Int64(from + 5400), Description: "Sprint Planning"},
		{Tag: "e", Day: 3, Duration: 600},
		{Tag: "e", Day: 9, Duration: 60},
	}, time.UTC)

	want := `control
  00.03. c (1h 0m)
2026-W10
  02.03. e 09:00–10:30 (1h 30m)  Sprint Planning
  03.03. e (10m)
2026-W11
  09.03. e (1m)
`
	assert.Equal(t, want, buf.String())
}

func TestPrintListEmpty(t *testing.T) {
	var buf bytes.Buffer
	printList(&buf, ledger.Key{Year: 2026, Month: time.March}, nil, time.UTC)
	assert.Equal(t, "No entries found.\n", buf.String())
}

func TestImportRange(t *testing.T) {
	now := time.Date(2026, 2, 27, 15, 0, 0, 0, time.UTC)
	defer func() { outlookFrom, outlookTo, outlookMonth = "", "", "" }()

	from, to, err := importRange(now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 2, 27, 23, 59, 59, 0, time.UTC), to)

	outlookMonth = "2026-02"
	from, to, err = importRange(now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC), to)

	outlookMonth, outlookFrom, outlookTo = "", "", "2026-02-10"
	_, _, err = importRange(now, time.UTC)
	assert.Error(t, err, "--to without --from")

	outlookFrom = "2026-02-11"
	_, _, err = importRange(now, time.UTC)
	assert.Error(t, err, "--to before --from")

	outlookFrom = "2026-02-01"
	from, to, err = importRange(now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 2, 10, 23, 59, 59, 0, time.UTC), to)
}

func TestParseNow(t *testing.T) {
	got, err := parseNow("2012-09-03T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2012, 9, 3, 10, 0, 0, 0, time.UTC)))

	got, err = parseNow("2012-09-03")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Day())

	_, err = parseNow("yesterday")
	assert.Error(t, err)
}
