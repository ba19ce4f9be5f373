package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"finviz/internal/amqp"
	"finviz/internal/ledger"
	applog "finviz/internal/log"
	"finviz/internal/sheets"
	"finviz/internal/store"
)

// Consumer delivers ledger change events. *amqp.Client satisfies it.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler amqp.Handler) error
}

// MirrorWorker copies the persisted ledger into a LedgerMirror, on every
// change event and on a fixed schedule to catch missed events.
type MirrorWorker struct {
	store  store.Store
	key    string
	mirror sheets.LedgerMirror
	logger *applog.Logger

	mu       sync.Mutex // one mirror run at a time
	lastSync time.Time
}

func NewMirrorWorker(st store.Store, key string, mirror sheets.LedgerMirror, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &MirrorWorker{
		store:  st,
		key:    key,
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleChange mirrors the ledger named in msg. Events for other ledgers
// are acknowledged and ignored.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if msg.LedgerKey != w.key {
		w.logger.DebugContext(ctx, "Ignoring change for another ledger",
			applog.FieldLedgerKey, msg.LedgerKey, "id", msg.ID.String())
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger change",
		"id", msg.ID.String(),
		"kind", string(msg.Kind),
		applog.FieldCount, msg.Count)

	return w.Resync(ctx)
}

// Resync reads the ledger from the store and replaces the mirror with it.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := ledger.Load(applog.WithContext(ctx, w.logger), w.store, w.key)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := w.mirror.Replace(ctx, c.Items()); err != nil {
		w.logger.ErrorContext(ctx, "Mirror failed",
			applog.NewFields().WithOperation(applog.OpMirror).WithLedger(w.key, c.Len()).WithError(err).ToSlice()...)
		return fmt.Errorf("replace mirror: %w", err)
	}

	w.lastSync = time.Now()
	w.logger.InfoContext(ctx, "Ledger mirrored",
		applog.NewFields().WithOperation(applog.OpMirror).WithLedger(w.key, c.Len()).ToSlice()...)
	return nil
}

// LastSync reports when the mirror last succeeded.
func (w *MirrorWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

// Run performs an initial resync, then serves change events from consumer
// (if any) and scheduled resyncs until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer, schedule string) error {
	if err := w.Resync(ctx); err != nil {
		// The schedule retries; a cold mirror is not fatal.
		w.logger.WarnContext(ctx, "Startup resync failed", applog.FieldError, err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() {
		if err := w.Resync(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled resync failed", applog.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("invalid mirror schedule %q: %w", schedule, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scheduler.Start()
		w.logger.InfoContext(gctx, "Resync scheduler started", "schedule", schedule)
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})

	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeLedgerChanged(gctx, w.HandleChange)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		})
	} else {
		w.logger.InfoContext(ctx, "No change event source, relying on scheduled resync")
	}

	return g.Wait()
}
