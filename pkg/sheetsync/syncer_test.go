package sheetsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/duck"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	FetchFunc func(ctx context.Context, source string) ([]byte, Format, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, source string) ([]byte, Format, error) {
	return m.FetchFunc(ctx, source)
}

type mockReplacer struct {
	mu       sync.Mutex
	replaced [][]snapshot.Row
	err      error
}

func (m *mockReplacer) Replace(_ context.Context, rows []snapshot.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.replaced = append(m.replaced, rows)
	return nil
}

func (m *mockReplacer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.replaced)
}

func csvFetcher(body string) *mockFetcher {
	return &mockFetcher{FetchFunc: func(context.Context, string) ([]byte, Format, error) {
		return []byte(body), FormatCSV, nil
	}}
}

func TestHotel_SheetSync_NewSyncer(t *testing.T) {
	t.Parallel()

	_, err := NewSyncer(SyncerConfig{Logger: logger, Fetcher: csvFetcher(""), Store: &mockReplacer{}})
	require.Error(t, err, "source is required")
	_, err = NewSyncer(SyncerConfig{Logger: logger, Store: &mockReplacer{}, Source: "x"})
	require.Error(t, err)
}

func TestHotel_SheetSync_Sync(t *testing.T) {
	t.Parallel()

	t.Run("replaces and invalidates", func(t *testing.T) {
		t.Parallel()

		store := &mockReplacer{}
		var invalidated atomic.Int32
		s, err := NewSyncer(SyncerConfig{
			Logger:    logger,
			Fetcher:   csvFetcher(sampleCSV),
			Store:     store,
			Source:    "sheet.csv",
			OnReplace: func() { invalidated.Add(1) },
		})
		require.NoError(t, err)
		require.False(t, s.Ready())

		res, err := s.Sync(t.Context())
		require.NoError(t, err)
		require.Equal(t, 3, res.Rows)
		require.Equal(t, 1, res.SkippedRows)
		require.True(t, s.Ready())
		require.Equal(t, int32(1), invalidated.Load())
		require.Equal(t, 1, store.count())
		require.Equal(t, res, s.LastResult())
	})

	t.Run("missing date column aborts without replacing", func(t *testing.T) {
		t.Parallel()

		store := &mockReplacer{}
		s, err := NewSyncer(SyncerConfig{Logger: logger, Fetcher: csvFetcher("Time,Rooms Sold\n21:00,3\n"), Store: store, Source: "x"})
		require.NoError(t, err)

		_, err = s.Sync(t.Context())
		require.ErrorIs(t, err, ErrMissingColumn)
		require.Equal(t, 0, store.count())
		require.False(t, s.Ready())
	})

	t.Run("fetch and store failures are returned", func(t *testing.T) {
		t.Parallel()

		fetchErr := errors.New("network down")
		s, err := NewSyncer(SyncerConfig{
			Logger: logger,
			Fetcher: &mockFetcher{FetchFunc: func(context.Context, string) ([]byte, Format, error) {
				return nil, "", fetchErr
			}},
			Store:  &mockReplacer{},
			Source: "x",
		})
		require.NoError(t, err)
		_, err = s.Sync(t.Context())
		require.ErrorIs(t, err, fetchErr)

		storeErr := errors.New("disk full")
		s, err = NewSyncer(SyncerConfig{Logger: logger, Fetcher: csvFetcher(sampleCSV), Store: &mockReplacer{err: storeErr}, Source: "x"})
		require.NoError(t, err)
		_, err = s.Sync(t.Context())
		require.ErrorIs(t, err, storeErr)
	})
}

func TestHotel_SheetSync_Start(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := &mockReplacer{}
	s, err := NewSyncer(SyncerConfig{
		Logger:          logger,
		Clock:           clock,
		Fetcher:         csvFetcher(sampleCSV),
		Store:           store,
		Source:          "x",
		RefreshInterval: time.Minute,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	s.Start(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	require.NoError(t, s.WaitReady(waitCtx))
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return store.count() == 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestHotel_SheetSync_SyncIntoDuckDB(t *testing.T) {
	t.Parallel()

	db, err := duck.NewDB(t.Context(), "", logger)
	require.NoError(t, err)
	defer db.Close()

	store, err := snapshot.NewStore(snapshot.StoreConfig{Logger: logger, DB: db})
	require.NoError(t, err)

	s, err := NewSyncer(SyncerConfig{Logger: logger, Fetcher: csvFetcher(sampleCSV), Store: store, Source: "x"})
	require.NoError(t, err)
	_, err = s.Sync(t.Context())
	require.NoError(t, err)

	rows, err := store.Load(t.Context(), snapshot.NewDateRange(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.True(t, rows[1].KingRate.IsSoldOut())
	require.Equal(t, snapshot.NumericRate(1049), rows[1].QQRate)
}
