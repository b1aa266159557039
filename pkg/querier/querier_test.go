package querier

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/duck"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/logger"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/require"
)

func newTestQuerier(t *testing.T, maxRows int) (*Querier, duck.DB) {
	t.Helper()
	db, err := duck.NewDB(t.Context(), "", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := snapshot.NewStore(snapshot.StoreConfig{Logger: logger.Discard(), DB: db})
	require.NoError(t, err)
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 21, 0, 0, 0, time.UTC) }
	require.NoError(t, store.Replace(t.Context(), []snapshot.Row{
		{Timestamp: day(1), RoomsSold: 45, KingRate: snapshot.SoldOut},
		{Timestamp: day(2), RoomsSold: 30, KingRate: snapshot.NumericRate(129)},
		{Timestamp: day(3), RoomsSold: 15, KingRate: snapshot.NumericRate(139)},
	}))

	q, err := New(Config{Logger: logger.Discard(), DB: db, MaxRows: maxRows})
	require.NoError(t, err)
	return q, db
}

func TestHotel_Querier_New(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

func TestHotel_Querier_Query(t *testing.T) {
	t.Parallel()

	t.Run("select", func(t *testing.T) {
		t.Parallel()

		q, _ := newTestQuerier(t, 0)
		resp, err := q.Query(t.Context(), `SELECT CAST("DateTime" AS DATE) AS day, "Rooms Sold" FROM daily_hourly_metrics ORDER BY 1;`)
		require.NoError(t, err)
		require.Equal(t, []string{"day", "Rooms Sold"}, resp.Columns)
		require.Equal(t, 3, resp.Count)
		require.Equal(t, 45.0, resp.Rows[0]["Rooms Sold"])
		require.NotContains(t, resp.SQL, ";")
	})

	t.Run("with clause and count", func(t *testing.T) {
		t.Parallel()

		q, _ := newTestQuerier(t, 0)
		resp, err := q.Query(t.Context(), `WITH d AS (SELECT * FROM daily_hourly_metrics WHERE "King Rate" ILIKE '%sold out%') SELECT COUNT(*) AS n FROM d`)
		require.NoError(t, err)
		require.Equal(t, int64(1), resp.Rows[0]["n"])
	})

	t.Run("rejects writes", func(t *testing.T) {
		t.Parallel()

		q, _ := newTestQuerier(t, 0)
		for _, stmt := range []string{
			"DELETE FROM daily_hourly_metrics",
			"DROP TABLE daily_hourly_metrics",
			"  insert into daily_hourly_metrics VALUES (NULL)",
			"",
		} {
			_, err := q.Query(t.Context(), stmt)
			require.ErrorIs(t, err, ErrNotReadOnly, stmt)
		}
	})

	t.Run("stacked statements never persist", func(t *testing.T) {
		t.Parallel()

		q, _ := newTestQuerier(t, 0)
		for _, stmt := range []string{
			"SELECT 1; DELETE FROM daily_hourly_metrics",
			"SELECT 1; COMMIT; DROP TABLE daily_hourly_metrics; SELECT 1",
			"WITH x AS (SELECT 1) SELECT * FROM x; COMMIT; DELETE FROM daily_hourly_metrics",
		} {
			_, err := q.Query(t.Context(), stmt)
			require.ErrorIs(t, err, ErrNotReadOnly, stmt)
		}

		resp, err := q.Query(t.Context(), "SELECT COUNT(*) AS n FROM daily_hourly_metrics")
		require.NoError(t, err)
		require.Equal(t, int64(3), resp.Rows[0]["n"])
	})

	t.Run("rejects multiple selects", func(t *testing.T) {
		t.Parallel()

		q, _ := newTestQuerier(t, 0)
		_, err := q.Query(t.Context(), "SELECT 1; SELECT 2")
		require.ErrorIs(t, err, ErrMultipleStatements)
	})

	t.Run("copy to file is rejected", func(t *testing.T) {
		t.Parallel()

		q, _ := newTestQuerier(t, 0)
		out := filepath.Join(t.TempDir(), "out.csv")
		_, err := q.Query(t.Context(), "SELECT 1; COPY daily_hourly_metrics TO '"+out+"'")
		require.ErrorIs(t, err, ErrNotReadOnly)
		require.NoFileExists(t, out)
	})

	t.Run("syntax error surfaces", func(t *testing.T) {
		t.Parallel()

		q, _ := newTestQuerier(t, 0)
		_, err := q.Query(t.Context(), "SELECT FROM WHERE")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrNotReadOnly)
	})

	t.Run("truncates at max rows", func(t *testing.T) {
		t.Parallel()

		q, _ := newTestQuerier(t, 2)
		resp, err := q.Query(t.Context(), "SELECT * FROM range(10)")
		require.NoError(t, err)
		require.Equal(t, 2, resp.Count)
		require.True(t, resp.Truncated)
	})
}

func TestHotel_Querier_LeadingKeyword(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"select 1":                      "SELECT",
		"  \n(SELECT 1)":                "SELECT",
		"-- note\nWITH x AS (SELECT 1)": "WITH",
		"/* c */ select 1":              "SELECT",
		"DELETE FROM t":                 "DELETE",
		"-- only a comment":             "",
		"":                              "",
	}
	for in, want := range tests {
		require.Equal(t, want, LeadingKeyword(in), in)
	}
}

func TestHotel_Querier_NormalizeValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", normalizeValue([]byte("abc")))
	require.Equal(t, int64(7), normalizeValue(int32(7)))
	require.Equal(t, int64(42), normalizeValue(big.NewInt(42)))
	require.Equal(t, 1.5, normalizeValue(float32(1.5)))
	require.InDelta(t, 12.34, normalizeValue(duckdb.Decimal{Width: 10, Scale: 2, Value: big.NewInt(1234)}), 1e-9)
	require.Nil(t, normalizeValue(nil))
}

func TestHotel_Querier_Formatted(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Query returned no results.", QueryResponse{}.Formatted())

	resp := QueryResponse{
		Columns: []string{"day", "occupancy"},
		Rows: []QueryRow{
			{"day": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "occupancy": 75.0},
			{"day": time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), "occupancy": 66.6666},
		},
		Count: 2,
	}
	require.Equal(t, "Columns: day, occupancy\nRows (2 total):\n2024-03-01 | 75\n2024-03-02 | 66.67\n", resp.Formatted())
}
