package pagemanager

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"time"

	internaltelemetry "github.com/sushant-115/slabdb/internal/telemetry"
	"github.com/sushant-115/slabdb/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// PageManager owns one page and the store it lives in. All mutation goes
// through its latch, so it is the single writer for that page; readers use
// View and may run concurrently with each other.
type PageManager struct {
	store   BackingStore
	name    string
	page    *Page
	logger  *zap.Logger
	metrics *internaltelemetry.PageMetrics
	tracer  trace.Tracer

	// latch protects page and its contents.
	latch sync.RWMutex
}

// NewPageManager creates a manager for the page called name in store.
// log, metrics and tracer may all be nil.
func NewPageManager(store BackingStore, name string, log *zap.Logger, metrics *internaltelemetry.PageMetrics, tracer trace.Tracer) *PageManager {
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}
	return &PageManager{
		store:   store,
		name:    name,
		logger:  logger.OrNop(log).Named("page_manager").With(zap.String("page", name)),
		metrics: metrics,
		tracer:  tracer,
	}
}

// Open loads the page. When the store has no such page and create is set,
// a fresh page is started instead; it reaches the store on the next Flush.
func (pm *PageManager) Open(ctx context.Context, create bool) error {
	ctx, span := pm.tracer.Start(ctx, "PageManager.Open", trace.WithAttributes(attribute.String("page", pm.name)))
	defer span.End()

	pm.latch.Lock()
	defer pm.latch.Unlock()

	start := time.Now()
	page, n, err := loadPage(pm.store, pm.name)
	elapsed := time.Since(start)

	switch {
	case err == nil && n == 0:
		pm.metrics.RecordLoad(ctx, elapsed, nil)
		page = NewPage()
		pm.logger.Info("Page file empty, created new page", zap.Uint16("tip", page.Tip()))
	case err == nil:
		pm.metrics.RecordLoad(ctx, elapsed, nil)
		if n < PageSize {
			pm.logger.Warn("Short page read, remainder zero-filled", zap.Int("bytes_read", n), zap.Int("page_size", PageSize))
		}
		if page.Tip() < HeaderSize {
			pm.logger.Warn("Page tip is inside the header, appends will fail", zap.Uint16("tip", page.Tip()))
		}
		pm.logger.Info("Page loaded", zap.Uint16("tip", page.Tip()), zap.Uint16("free", page.FreeSpace()))
	case create && errors.Is(err, fs.ErrNotExist):
		pm.metrics.RecordLoad(ctx, elapsed, nil)
		page = NewPage()
		pm.logger.Info("Page not found, created new page", zap.Uint16("tip", page.Tip()))
	default:
		pm.metrics.RecordLoad(ctx, elapsed, err)
		pm.logger.Error("Failed to load page", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	pm.page = page
	return nil
}

// Append writes b at the current tip and returns the offset it landed at.
func (pm *PageManager) Append(ctx context.Context, b []byte) (uint16, error) {
	var offset uint16
	err := pm.Update(ctx, func(p *Page) error {
		offset = p.Tip()
		return p.AppendWrite(b)
	})
	return offset, err
}

// Update runs fn with exclusive access to the page. Appends made by fn are
// counted; an ErrOutOfSpace from fn is recorded and returned unchanged.
func (pm *PageManager) Update(ctx context.Context, fn func(p *Page) error) error {
	ctx, span := pm.tracer.Start(ctx, "PageManager.Update")
	defer span.End()

	pm.latch.Lock()
	defer pm.latch.Unlock()

	if pm.page == nil {
		span.RecordError(ErrPageNotOpen)
		return ErrPageNotOpen
	}

	before := pm.page.Tip()
	err := fn(pm.page)
	if after := pm.page.Tip(); after > before {
		pm.metrics.RecordAppend(ctx, int(after-before))
		pm.logger.Debug("Appended to page", zap.Uint16("offset", before), zap.Uint16("tip", after))
	}
	if errors.Is(err, ErrOutOfSpace) {
		pm.metrics.RecordOutOfSpace(ctx)
		pm.logger.Debug("Append rejected, page full", zap.Uint16("free", pm.page.FreeSpace()), zap.Error(err))
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// View runs fn with shared access to the page. fn must not modify it.
func (pm *PageManager) View(fn func(p *Page) error) error {
	pm.latch.RLock()
	defer pm.latch.RUnlock()

	if pm.page == nil {
		return ErrPageNotOpen
	}
	return fn(pm.page)
}

// FreeSpace returns the open page's free space, or 0 when none is open.
func (pm *PageManager) FreeSpace() uint16 {
	pm.latch.RLock()
	defer pm.latch.RUnlock()

	if pm.page == nil {
		return 0
	}
	return pm.page.FreeSpace()
}

// Flush persists the page, whether or not it is dirty.
func (pm *PageManager) Flush(ctx context.Context) error {
	pm.latch.Lock()
	defer pm.latch.Unlock()
	return pm.flushLocked(ctx)
}

func (pm *PageManager) flushLocked(ctx context.Context) error {
	ctx, span := pm.tracer.Start(ctx, "PageManager.Flush", trace.WithAttributes(attribute.String("page", pm.name)))
	defer span.End()

	if pm.page == nil {
		span.RecordError(ErrPageNotOpen)
		return ErrPageNotOpen
	}

	start := time.Now()
	err := pm.page.Persist(pm.store, pm.name)
	pm.metrics.RecordPersist(ctx, time.Since(start), err)
	if err != nil {
		pm.logger.Error("Failed to persist page", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	pm.logger.Debug("Page persisted", zap.Uint16("tip", pm.page.Tip()))
	return nil
}

// Close flushes a dirty page and releases it. Closing twice is a no-op.
func (pm *PageManager) Close(ctx context.Context) error {
	pm.latch.Lock()
	defer pm.latch.Unlock()

	if pm.page == nil {
		return nil
	}
	if pm.page.IsDirty() {
		if err := pm.flushLocked(ctx); err != nil {
			return err
		}
	}
	pm.page = nil
	pm.logger.Info("Page closed")
	return nil
}
