package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes buffered records on shutdown.
type Closer interface {
	Close()
	// Dropped reports how many records were discarded because the buffer
	// was full.
	Dropped() int64
}

type nopCloser struct{}

func (nopCloser) Close()         {}
func (nopCloser) Dropped() int64 { return 0 }

// asyncState is shared by an AsyncHandler and every handler derived from it
// through WithAttrs or WithGroup.
type asyncState struct {
	ch      chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64
	closed  atomic.Bool
}

type queued struct {
	h   slog.Handler
	rec slog.Record
}

// AsyncHandler moves formatting and writing off the request path. When the
// buffer is full, records below Warn are dropped and counted while Warn and
// Error are written synchronously, so a busy booking burst never loses an
// error line.
type AsyncHandler struct {
	inner slog.Handler
	st    *asyncState
}

// NewAsyncHandler starts workers draining a buffer of size bufSize.
func NewAsyncHandler(inner slog.Handler, bufSize, workers int) *AsyncHandler {
	st := &asyncState{ch: make(chan queued, bufSize)}
	for range workers {
		st.wg.Add(1)
		go func() {
			defer st.wg.Done()
			for q := range st.ch {
				_ = q.h.Handle(context.Background(), q.rec)
			}
		}()
	}
	return &AsyncHandler{inner: inner, st: st}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.st.closed.Load() {
		return h.inner.Handle(ctx, rec)
	}
	select {
	case h.st.ch <- queued{h: h.inner, rec: rec.Clone()}:
		return nil
	default:
	}
	if rec.Level >= slog.LevelWarn {
		return h.inner.Handle(ctx, rec)
	}
	h.st.dropped.Add(1)
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), st: h.st}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), st: h.st}
}

// Dropped returns the number of discarded records.
func (h *AsyncHandler) Dropped() int64 {
	return h.st.dropped.Load()
}

// Close drains the buffer and waits for the workers. Records handled after
// Close are written synchronously. A final warning reports any drops.
func (h *AsyncHandler) Close() {
	if !h.st.closed.CompareAndSwap(false, true) {
		return
	}
	close(h.st.ch)
	h.st.wg.Wait()
	if n := h.st.dropped.Load(); n > 0 {
		rec := slog.NewRecord(timeNow(), slog.LevelWarn, "log records dropped", 0)
		rec.AddAttrs(slog.Int64("dropped", n))
		_ = h.inner.Handle(context.Background(), rec)
	}
}
