package ledger

import (
	"context"
	"errors"
	"fmt"

	"finviz/internal/core"
	applog "finviz/internal/log"
	"finviz/internal/store"
)

// Load reads the collection stored under key. A missing slot is an empty
// ledger. Malformed content is logged and treated as empty; only store
// failures are returned.
func Load(ctx context.Context, st store.Store, key string) (core.Collection, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentLedger)

	data, err := st.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return core.Collection{}, nil
	}
	if err != nil {
		return core.Collection{}, fmt.Errorf("load ledger %q: %w", key, err)
	}
	if len(data) == 0 {
		return core.Collection{}, nil
	}

	c, dropped, err := Decode(data)
	if err != nil {
		logger.WarnContext(ctx, "Persisted ledger is malformed, starting empty",
			applog.NewFields().WithOperation(applog.OpLoad).WithLedger(key, 0).WithError(err).ToSlice()...)
		return core.Collection{}, nil
	}
	if dropped > 0 {
		logger.WarnContext(ctx, "Dropped unreadable ledger records",
			applog.FieldLedgerKey, key, "dropped", dropped, applog.FieldCount, c.Len())
	}

	logger.DebugContext(ctx, "Ledger loaded",
		applog.NewFields().WithOperation(applog.OpLoad).WithLedger(key, c.Len()).ToSlice()...)
	return c, nil
}

// Save replaces the slot with c. An empty collection clears the slot.
func Save(ctx context.Context, st store.Store, key string, c core.Collection) error {
	if c.IsEmpty() {
		if err := st.Clear(ctx, key); err != nil {
			return fmt.Errorf("clear ledger %q: %w", key, err)
		}
		return nil
	}

	data, err := Encode(c)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := st.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save ledger %q: %w", key, err)
	}
	return nil
}
