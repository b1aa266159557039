package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const sheetCSV = "Date,Time,Rooms Sold,Rooms Available,Arrivals,OOO Rooms,King Rate,QQ Rate\n" +
	"2024-03-01,15:00,30,30,12,0,129,139\n" +
	"2024-03-01,21:00,45,15,20,2,Sold Out,149\n" +
	"2024-03-02,15:00,20,40,8,0,119,129\n" +
	"2024-03-02,21:00,30,30,10,0,119,129\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(BuildInfo{Version: "test", Commit: "none", Date: "unknown"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestHotel_CLI_ApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"HOTEL_CAPACITY":  "80",
		"HOTEL_DB_PATH":   "/tmp/from-env.duckdb",
		"HOTEL_SHEET_URL": "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("capacity", 60, "")
	flags.String("db-path", "default.duckdb", "")
	flags.String("source", "", "")
	require.NoError(t, flags.Parse([]string{"--db-path", "explicit.duckdb"}))

	require.NoError(t, applyEnv(flags, lookup))

	capacity, err := flags.GetInt("capacity")
	require.NoError(t, err)
	require.Equal(t, 80, capacity)

	dbPath, err := flags.GetString("db-path")
	require.NoError(t, err)
	require.Equal(t, "explicit.duckdb", dbPath, "explicit flags win over the environment")

	source, err := flags.GetString("source")
	require.NoError(t, err)
	require.Empty(t, source)

	env["HOTEL_CAPACITY"] = "lots"
	flags = pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("capacity", 60, "")
	require.ErrorContains(t, applyEnv(flags, lookup), "HOTEL_CAPACITY")
}

func TestHotel_CLI_LoadEnvFile(t *testing.T) {
	t.Parallel()

	require.NoError(t, loadEnvFile(""))
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestHotel_CLI_SyncThenReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hotel.duckdb")
	sheet := filepath.Join(dir, "sheet.csv")
	require.NoError(t, os.WriteFile(sheet, []byte(sheetCSV), 0o644))

	out, err := execute(t, "sync", "--db-path", dbPath, "--source", sheet)
	require.NoError(t, err)
	require.Contains(t, out, "Synced 4 rows")

	out, err = execute(t, "kpis", "--db-path", dbPath)
	require.NoError(t, err)
	require.Contains(t, out, "Range: 2024-03-01..2024-03-02")
	// Occupancy is (45 + 30) / 2 / 60.
	require.Contains(t, out, "62.50%")
	require.Contains(t, out, "King sold-out days")

	out, err = execute(t, "trend", "--db-path", dbPath, "--metric", "arrivals", "--granularity", "day")
	require.NoError(t, err)
	require.Contains(t, out, "arrivals at 15:00, by day")
	require.Contains(t, out, "Mar 01")
	require.Contains(t, out, "12.00")

	out, err = execute(t, "rows", "--db-path", dbPath, "--from", "2024-03-02", "--to", "2024-03-02")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "2024-03-02 15:00:00,20,40,8,0,119,129", lines[1])

	csvPath := filepath.Join(dir, "export.csv")
	_, err = execute(t, "rows", "--db-path", dbPath, "--out", csvPath)
	require.NoError(t, err)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 5)
}

func TestHotel_CLI_Errors(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "hotel.duckdb")

	_, err := execute(t, "sync", "--db-path", dbPath)
	require.ErrorContains(t, err, "source is required")

	_, err = execute(t, "kpis", "--db-path", dbPath, "--capacity", "0")
	require.ErrorContains(t, err, "capacity")

	_, err = execute(t, "trend", "--db-path", dbPath, "--metric", "revpar")
	require.Error(t, err)

	_, err = execute(t, "ask", "--db-path", dbPath, "--api-key", "", "how", "full?")
	require.ErrorContains(t, err, "API key")

	out, err := execute(t, "kpis", "--db-path", dbPath)
	require.NoError(t, err)
	require.Contains(t, out, "No data")
}
