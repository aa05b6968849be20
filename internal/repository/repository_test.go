package repository

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"

	"travelchat/internal/catalog"
	"travelchat/internal/config"
	"travelchat/internal/model"
)

const sampleCSV = "\ufeffidStr,name,bed_count,pricing/rate/amount,guestControls/allowsPets,city\n" +
	"51234567890123456789,Loft,2,800,True,Paris\n" +
	"2,\"Cabin, by the lake\",n/a,500.5,false,\n" +
	"3,Villa,3\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func checkSample(t *testing.T, snap *Snapshot) {
	t.Helper()
	table := snap.Table
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"idStr", "name", "bed_count", "pricing/rate/amount", "guestControls/allowsPets", "city"}, table.Header)

	col := func(name string) int {
		i, ok := table.ColumnIndex(name)
		require.True(t, ok, name)
		return i
	}

	id := table.Cell(0, col("idStr"))
	assert.Equal(t, model.KindNumber, id.Kind)
	assert.Equal(t, "51234567890123456789", id.Text)

	assert.Equal(t, model.Text("Cabin, by the lake"), table.Cell(1, col("name")))
	assert.True(t, table.Cell(1, col("bed_count")).IsAbsent(), "un-coercible number is absent")
	assert.Equal(t, 500.5, table.Cell(1, col("pricing/rate/amount")).Num)
	assert.Equal(t, model.Bool(true), table.Cell(0, col("guestControls/allowsPets")))
	assert.Equal(t, model.Bool(false), table.Cell(1, col("guestControls/allowsPets")))
	assert.True(t, table.Cell(1, col("city")).IsAbsent(), "empty cell is absent")
	assert.True(t, table.Cell(2, col("pricing/rate/amount")).IsAbsent(), "padded cell is absent")

	c, ok := snap.Schema.Lookup("bed_count")
	require.True(t, ok)
	assert.Equal(t, catalog.Numeric, c.Type)
}

func TestLoader_CSV(t *testing.T) {
	path := writeFile(t, "listings.csv", []byte(sampleCSV))

	snap, err := NewLoader(NewFileSource(path), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, snap.Source)
	checkSample(t, snap)
}

func TestLoader_CompressedCSV(t *testing.T) {
	tests := []struct {
		name     string
		compress func(t *testing.T, path string)
	}{
		{
			name: "gzip",
			compress: func(t *testing.T, path string) {
				f, err := os.Create(path)
				require.NoError(t, err)
				w := gzip.NewWriter(f)
				_, err = w.Write([]byte(sampleCSV))
				require.NoError(t, err)
				require.NoError(t, w.Close())
				require.NoError(t, f.Close())
			},
		},
		{
			name: "xz",
			compress: func(t *testing.T, path string) {
				f, err := os.Create(path)
				require.NoError(t, err)
				w, err := xz.NewWriter(f)
				require.NoError(t, err)
				_, err = w.Write([]byte(sampleCSV))
				require.NoError(t, err)
				require.NoError(t, w.Close())
				require.NoError(t, f.Close())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "listings.csv."+tt.name)
			tt.compress(t, path)

			snap, err := NewLoader(NewFileSource(path), nil).Load(context.Background())
			require.NoError(t, err)
			checkSample(t, snap)
		})
	}
}

func TestLoader_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"idStr", "name", "bed_count", "pricing/rate/amount", "guestControls/allowsPets", "city"},
		{"51234567890123456789", "Loft", "2", "800", "True", "Paris"},
		{"2", "Cabin, by the lake", "n/a", "500.5", "false"},
		{"3", "Villa", "3"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "listings.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src, err := NewSource(config.DatasetConfig{Path: path})
	require.NoError(t, err)
	require.IsType(t, &XLSXSource{}, src)

	snap, err := NewLoader(src, nil).Load(context.Background())
	require.NoError(t, err)
	checkSample(t, snap)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader(NewFileSource(filepath.Join(t.TempDir(), "nope.csv")), nil).Load(context.Background())
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Contains(t, le.Error(), "nope.csv")
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "empty.csv", nil)
		_, err := NewLoader(NewFileSource(path), nil).Load(context.Background())
		assert.ErrorContains(t, err, "empty")
	})

	t.Run("row wider than header", func(t *testing.T) {
		path := writeFile(t, "wide.csv", []byte("a,b\n1,2,3\n"))
		_, err := NewLoader(NewFileSource(path), nil).Load(context.Background())
		assert.ErrorContains(t, err, "3 fields")
	})
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		raw  string
		typ  catalog.ColumnType
		want model.Value
	}{
		{raw: " 4.5 ", typ: catalog.Numeric, want: model.Number(4.5, "4.5")},
		{raw: "NaN", typ: catalog.Numeric, want: model.Absent()},
		{raw: "", typ: catalog.Numeric, want: model.Absent()},
		{raw: "1.0", typ: catalog.Boolean, want: model.Bool(true)},
		{raw: "0", typ: catalog.Boolean, want: model.Bool(false)},
		{raw: "yes", typ: catalog.Boolean, want: model.Absent()},
		{raw: "Entire home/apt", typ: catalog.Categorical, want: model.Text("Entire home/apt")},
		{raw: "", typ: catalog.String, want: model.Absent()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, coerce(tt.raw, tt.typ), "%q as %s", tt.raw, tt.typ)
	}
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(config.DatasetConfig{Path: "data/listings.csv.gz"})
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	src, err = NewSource(config.DatasetConfig{Path: "data.csv", DSN: "postgres://localhost/db", Table: "public.listings"})
	require.NoError(t, err)
	assert.IsType(t, &PostgresSource{}, src)
	assert.Equal(t, "postgres:public.listings", src.Name())

	_, err = NewSource(config.DatasetConfig{})
	assert.Error(t, err)
}

func TestQuoteTable(t *testing.T) {
	got, err := quoteTable("public.listings")
	require.NoError(t, err)
	assert.Equal(t, `"public"."listings"`, got)

	got, err = quoteTable(`odd"name`)
	require.NoError(t, err)
	assert.Equal(t, `"odd""name"`, got)

	_, err = quoteTable("public.")
	assert.Error(t, err)
	_, err = quoteTable(" ")
	assert.Error(t, err)
}

func TestStringifySQL(t *testing.T) {
	assert.Equal(t, "", stringifySQL(nil))
	assert.Equal(t, "True", stringifySQL(true))
	assert.Equal(t, "42", stringifySQL(int64(42)))
	assert.Equal(t, "0.5", stringifySQL(0.5))
	assert.Equal(t, "Paris", stringifySQL([]byte("Paris")))
}

type countingLoader struct {
	calls atomic.Int32
	gate  chan struct{}
	fail  atomic.Bool
}

func (l *countingLoader) Load(ctx context.Context) (*Snapshot, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	if l.fail.Load() {
		return nil, &LoadError{Source: "test", Err: errors.New("boom")}
	}
	return &Snapshot{Table: model.NewTable(nil, nil), Source: "test", LoadedAt: time.Now()}, nil
}

func TestDatasetStore_SingleLoadUnderConcurrency(t *testing.T) {
	loader := &countingLoader{gate: make(chan struct{})}
	store := NewDatasetStore(loader, time.Second)

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 16)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := store.Get(context.Background())
			assert.NoError(t, err)
			snaps[i] = snap
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(loader.gate)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, s := range snaps {
		assert.Same(t, snaps[0], s)
	}
	assert.True(t, store.Loaded())
}

func TestDatasetStore_FailureNotCached(t *testing.T) {
	loader := &countingLoader{}
	loader.fail.Store(true)
	store := NewDatasetStore(loader, 0)

	_, err := store.Get(context.Background())
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.False(t, store.Loaded())

	loader.fail.Store(false)
	snap, err := store.Warm(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Equal(t, int32(2), loader.calls.Load())

	_, err = store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestDatasetStore_CallerContextCancelled(t *testing.T) {
	loader := &countingLoader{gate: make(chan struct{})}
	defer close(loader.gate)
	store := NewDatasetStore(loader, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
