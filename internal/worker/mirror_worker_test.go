package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finviz/internal/amqp"
	"finviz/internal/core"
	"finviz/internal/ledger"
	"finviz/internal/store/memory"
	sheetsmem "finviz/internal/sheets/memory"
)

func seedLedger(t *testing.T, st *memory.Store, n int) {
	t.Helper()
	var items []core.Transaction
	for i := 0; i < n; i++ {
		tx, err := core.NewTransaction("10", "2024-01-15", "Lunch", "Food")
		if err != nil {
			t.Fatal(err)
		}
		items = append(items, tx)
	}
	if err := ledger.Save(context.Background(), st, "transactions", core.NewCollection(items...)); err != nil {
		t.Fatal(err)
	}
}

type failingMirror struct{}

func (failingMirror) Replace(context.Context, []core.Transaction) error {
	return errors.New("quota exhausted")
}

func TestMirrorWorker_Resync(t *testing.T) {
	st := memory.New()
	seedLedger(t, st, 2)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(st, "transactions", mirror, nil)

	if err := w.Resync(context.Background()); err != nil {
		t.Fatalf("Resync() error = %v", err)
	}
	if rows := mirror.Rows(); len(rows) != 3 {
		t.Errorf("mirror rows = %d, want 3", len(rows))
	}
	if w.LastSync().IsZero() {
		t.Error("LastSync should be set")
	}
}

func TestMirrorWorker_ResyncEmptyLedger(t *testing.T) {
	mirror := sheetsmem.New()
	w := NewMirrorWorker(memory.New(), "transactions", mirror, nil)
	if err := w.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rows := mirror.Rows(); len(rows) != 1 {
		t.Errorf("empty ledger should mirror just the header, got %v", rows)
	}
}

func TestMirrorWorker_ResyncFailure(t *testing.T) {
	w := NewMirrorWorker(memory.New(), "transactions", failingMirror{}, nil)
	if err := w.Resync(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !w.LastSync().IsZero() {
		t.Error("LastSync must not move on failure")
	}
}

func TestMirrorWorker_HandleChange(t *testing.T) {
	st := memory.New()
	seedLedger(t, st, 1)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(st, "transactions", mirror, nil)

	other := amqp.NewLedgerChangedMessage("someone-else", amqp.ChangeAppended, 1)
	if err := w.HandleChange(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if mirror.Replaces() != 0 {
		t.Error("foreign ledger event should be ignored")
	}

	mine := amqp.NewLedgerChangedMessage("transactions", amqp.ChangeAppended, 1)
	if err := w.HandleChange(context.Background(), mine); err != nil {
		t.Fatal(err)
	}
	if mirror.Replaces() != 1 {
		t.Errorf("replaces = %d, want 1", mirror.Replaces())
	}
}

func TestMirrorWorker_HandleChangeIgnoresStaleCount(t *testing.T) {
	st := memory.New()
	seedLedger(t, st, 3)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(st, "transactions", mirror, nil)

	// A later event can arrive first; its count says nothing about the store.
	for _, count := range []int{3, 2} {
		msg := amqp.NewLedgerChangedMessage("transactions", amqp.ChangeAppended, count)
		if err := w.HandleChange(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
		if rows := mirror.Rows(); len(rows) != 4 {
			t.Fatalf("after count %d: mirror rows = %d, want 4", count, len(rows))
		}
	}
}

type fakeConsumer struct {
	msgs    []*amqp.LedgerChangedMessage
	mu      sync.Mutex
	handled int
	done    chan struct{}
}

func (f *fakeConsumer) ConsumeLedgerChanged(ctx context.Context, handler amqp.Handler) error {
	for _, m := range f.msgs {
		if err := handler(ctx, m); err != nil {
			return err
		}
		f.mu.Lock()
		f.handled++
		f.mu.Unlock()
	}
	close(f.done)
	<-ctx.Done()
	return ctx.Err()
}

func TestMirrorWorker_Run(t *testing.T) {
	st := memory.New()
	seedLedger(t, st, 3)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(st, "transactions", mirror, nil)

	consumer := &fakeConsumer{
		msgs: []*amqp.LedgerChangedMessage{
			amqp.NewLedgerChangedMessage("transactions", amqp.ChangeAppended, 3),
			amqp.NewLedgerChangedMessage("transactions", amqp.ChangeCleared, 0),
		},
		done: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx, consumer, "@every 1h") }()

	select {
	case <-consumer.done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer never drained")
	}
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop")
	}

	// startup resync + one per event
	if got := mirror.Replaces(); got != 3 {
		t.Errorf("replaces = %d, want 3", got)
	}
}

func TestMirrorWorker_RunWithoutConsumer(t *testing.T) {
	mirror := sheetsmem.New()
	w := NewMirrorWorker(memory.New(), "transactions", mirror, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx, nil, "@every 1h"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if mirror.Replaces() != 1 {
		t.Errorf("expected startup resync, got %d", mirror.Replaces())
	}
}

func TestMirrorWorker_RunBadSchedule(t *testing.T) {
	w := NewMirrorWorker(memory.New(), "transactions", sheetsmem.New(), nil)
	if err := w.Run(context.Background(), nil, "whenever"); err == nil {
		t.Fatal("expected schedule error")
	}
}
