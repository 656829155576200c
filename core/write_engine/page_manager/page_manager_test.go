package pagemanager

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	internaltelemetry "github.com/sushant-115/slabdb/internal/telemetry"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

// --- Test Helpers ---

type testHarness struct {
	store    *FileStore
	reader   *sdkmetric.ManualReader
	recorder *tracetest.SpanRecorder
	pm       *PageManager
}

func setupPageManager(t *testing.T) *testHarness {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := internaltelemetry.NewPageMetrics(meterProvider.Meter("test"))
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	store := NewFileStore(t.TempDir())
	return &testHarness{
		store:    store,
		reader:   reader,
		recorder: recorder,
		pm:       NewPageManager(store, "data.page", logger, metrics, tracerProvider.Tracer("test")),
	}
}

func (h *testHarness) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

// --- Test Cases ---

func TestPageManager_OpenMissingWithoutCreate(t *testing.T) {
	h := setupPageManager(t)
	err := h.pm.Open(context.Background(), false)
	require.ErrorIs(t, err, ErrIoOpen)
	require.Equal(t, int64(1), h.counter(t, "slabdb.page.io_errors_total"))

	_, err = h.pm.Append(context.Background(), []byte{1})
	require.ErrorIs(t, err, ErrPageNotOpen)
	require.ErrorIs(t, h.pm.Flush(context.Background()), ErrPageNotOpen)
	require.Equal(t, uint16(0), h.pm.FreeSpace())
}

func TestPageManager_CreateIsNotCountedAsIoError(t *testing.T) {
	h := setupPageManager(t)
	require.NoError(t, h.pm.Open(context.Background(), true))
	require.Equal(t, int64(0), h.counter(t, "slabdb.page.io_errors_total"))
}

func TestPageManager_OpenEmptyFileStartsFreshPage(t *testing.T) {
	ctx := context.Background()
	h := setupPageManager(t)
	require.NoError(t, os.WriteFile(h.store.Path("data.page"), nil, 0644))

	require.NoError(t, h.pm.Open(ctx, false))
	require.Equal(t, uint16(PageSize-HeaderSize), h.pm.FreeSpace())
	require.Equal(t, int64(0), h.counter(t, "slabdb.page.io_errors_total"))

	off, err := h.pm.Append(ctx, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, uint16(HeaderSize), off)
}

func TestPageManager_TinyFileRejectsAppends(t *testing.T) {
	ctx := context.Background()
	h := setupPageManager(t)
	// Seven bytes: the tip reads as 0x0007, inside the header.
	require.NoError(t, os.WriteFile(h.store.Path("data.page"), []byte{0, 0, 0, 0, 0, 7, 0}, 0644))
	require.NoError(t, h.pm.Open(ctx, false))

	_, err := h.pm.Append(ctx, []byte("hello"))
	require.ErrorIs(t, err, ErrCorruptedTip)
	require.NoError(t, h.pm.View(func(p *Page) error {
		require.Equal(t, uint16(7), p.Tip())
		return nil
	}))
}

func TestPageManager_NotOpenErrorsAreRecordedOnSpans(t *testing.T) {
	ctx := context.Background()
	h := setupPageManager(t)

	require.ErrorIs(t, h.pm.Update(ctx, func(*Page) error { return nil }), ErrPageNotOpen)
	require.ErrorIs(t, h.pm.Flush(ctx), ErrPageNotOpen)

	spans := h.recorder.Ended()
	require.Len(t, spans, 2)
	for _, s := range spans {
		require.NotEmpty(t, s.Events(), "span %s should carry the error", s.Name())
		require.Equal(t, "exception", s.Events()[0].Name)
	}
}

func TestPageManager_AppendFlushReopen(t *testing.T) {
	ctx := context.Background()
	h := setupPageManager(t)
	require.NoError(t, h.pm.Open(ctx, true))
	require.Equal(t, uint16(3840), h.pm.FreeSpace())

	off1, err := h.pm.Append(ctx, []byte("first"))
	require.NoError(t, err)
	require.Equal(t, uint16(HeaderSize), off1)
	off2, err := h.pm.Append(ctx, []byte("second"))
	require.NoError(t, err)
	require.Equal(t, uint16(HeaderSize+5), off2)
	require.NoError(t, h.pm.Close(ctx))

	require.Equal(t, int64(2), h.counter(t, "slabdb.page.appends_total"))
	require.Equal(t, int64(11), h.counter(t, "slabdb.page.appended_bytes_total"))

	// Simulate a restart with a new manager over the same store.
	pm2 := NewPageManager(h.store, "data.page", nil, nil, nil)
	require.NoError(t, pm2.Open(ctx, false))
	defer pm2.Close(ctx)

	require.NoError(t, pm2.View(func(p *Page) error {
		require.Equal(t, uint16(HeaderSize+11), p.Tip())
		require.Equal(t, []byte("first"), p.ReadSpan(int(off1), 5))
		require.Equal(t, []byte("second"), p.ReadSpan(int(off2), 6))
		return nil
	}))
}

func TestPageManager_OutOfSpaceIsCounted(t *testing.T) {
	ctx := context.Background()
	h := setupPageManager(t)
	require.NoError(t, h.pm.Open(ctx, true))

	_, err := h.pm.Append(ctx, make([]byte, 3841))
	require.ErrorIs(t, err, ErrOutOfSpace)
	require.Equal(t, int64(1), h.counter(t, "slabdb.page.out_of_space_total"))
	require.Equal(t, int64(0), h.counter(t, "slabdb.page.appends_total"))
	require.Equal(t, uint16(3840), h.pm.FreeSpace())
}

func TestPageManager_CloseSkipsCleanPage(t *testing.T) {
	ctx := context.Background()
	h := setupPageManager(t)
	require.NoError(t, h.pm.Open(ctx, true))
	require.NoError(t, h.pm.Flush(ctx))

	path := h.store.Path("data.page")
	require.NoError(t, os.Remove(path))

	require.NoError(t, h.pm.Close(ctx))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "a clean page must not be rewritten on close")
	require.NoError(t, h.pm.Close(ctx))
}

func TestPageManager_RecordsSpans(t *testing.T) {
	ctx := context.Background()
	h := setupPageManager(t)
	require.NoError(t, h.pm.Open(ctx, true))
	_, err := h.pm.Append(ctx, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, h.pm.Flush(ctx))

	var names []string
	for _, s := range h.recorder.Ended() {
		names = append(names, s.Name())
	}
	require.Equal(t, []string{"PageManager.Open", "PageManager.Update", "PageManager.Flush"}, names)
}

func TestPageManager_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	h := setupPageManager(t)
	require.NoError(t, h.pm.Open(ctx, true))

	const writers, perWriter, size = 8, 10, 16
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(fill byte) {
			defer wg.Done()
			chunk := make([]byte, size)
			for i := range chunk {
				chunk[i] = fill
			}
			for i := 0; i < perWriter; i++ {
				_, err := h.pm.Append(ctx, chunk)
				assert.NoError(t, err)
			}
		}(byte(w + 1))
	}
	wg.Wait()

	require.NoError(t, h.pm.View(func(p *Page) error {
		require.Equal(t, uint16(HeaderSize+writers*perWriter*size), p.Tip())
		// Every chunk must be contiguous: no interleaving between writers.
		for off := HeaderSize; off < int(p.Tip()); off += size {
			chunk := p.ReadSpan(off, size)
			for _, b := range chunk {
				require.Equal(t, chunk[0], b)
			}
		}
		return nil
	}))
}
