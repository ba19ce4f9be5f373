package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"finviz/internal/amqp"
	"finviz/internal/cache"
	"finviz/internal/core"
	"finviz/internal/ledger"
	applog "finviz/internal/log"
	"finviz/internal/store"
)

// ChangePublisher announces ledger mutations. *amqp.Client satisfies it.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, ledgerKey string, kind amqp.ChangeKind, count int) error
}

type Options struct {
	// Publisher is optional; nil disables change events.
	Publisher ChangePublisher
	Logger    *applog.Logger
	CacheSize int
	CacheTTL  time.Duration
}

// TransactionService owns the in-memory ledger and keeps it in step with
// the store. Every mutation runs validate, persist, swap under one lock,
// so a failed write leaves the visible state untouched.
type TransactionService struct {
	mu       sync.RWMutex
	store    store.Store
	key      string
	current  core.Collection
	revision uint64

	search    *cache.LRUCache[core.Collection]
	publisher ChangePublisher
	logger    *applog.Logger
}

// NewTransactionService loads the ledger stored under key.
func NewTransactionService(ctx context.Context, st store.Store, key string, opts Options) (*TransactionService, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentService)

	size, ttl := opts.CacheSize, opts.CacheTTL
	if size <= 0 {
		size = 128
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	current, err := ledger.Load(applog.WithContext(ctx, logger), st, key)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Ledger ready",
		applog.NewFields().WithOperation(applog.OpStartup).WithLedger(key, current.Len()).ToSlice()...)

	return &TransactionService{
		store:     st,
		key:       key,
		current:   current,
		search:    cache.NewLRUCache[core.Collection](size, ttl),
		publisher: opts.Publisher,
		logger:    logger,
	}, nil
}

// SearchCache exposes the memo so it can be registered for cleanup.
func (s *TransactionService) SearchCache() *cache.LRUCache[core.Collection] {
	return s.search
}

func (s *TransactionService) LedgerKey() string {
	return s.key
}

// AddTransaction validates the raw field values and appends the record.
// Validation failures come back as *core.ValidationError.
func (s *TransactionService) AddTransaction(ctx context.Context, amount, date, description, category string) (core.Transaction, error) {
	tx, err := core.NewTransaction(amount, date, description, category)
	if err != nil {
		s.logger.DebugContext(ctx, "Transaction rejected",
			applog.NewFields().WithOperation(applog.OpValidate).WithError(err).ToSlice()...)
		return core.Transaction{}, err
	}

	s.mu.Lock()
	next := s.current.Append(tx)
	if err := ledger.Save(ctx, s.store, s.key, next); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Failed to persist transaction",
			applog.NewFields().WithOperation(applog.OpAppend).WithLedger(s.key, s.current.Len()).WithError(err).ToSlice()...)
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	s.swap(next)
	count := next.Len()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction added",
		applog.NewFields().
			WithOperation(applog.OpAppend).
			WithTransaction(tx.AmountText(), tx.Date(), tx.Description(), tx.Category()).
			WithLedger(s.key, count).
			ToSlice()...)

	s.publish(ctx, amqp.ChangeAppended, count)
	return tx, nil
}

// DeleteAll empties the ledger in memory and in the store. Clearing an
// already empty ledger succeeds.
func (s *TransactionService) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	next := s.current.Clear()
	if err := ledger.Save(ctx, s.store, s.key, next); err != nil {
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Failed to clear ledger",
			applog.NewFields().WithOperation(applog.OpClear).WithLedger(s.key, s.current.Len()).WithError(err).ToSlice()...)
		return fmt.Errorf("delete all transactions: %w", err)
	}
	removed := s.current.Len()
	s.swap(next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger cleared",
		applog.NewFields().WithOperation(applog.OpClear).WithLedger(s.key, 0).ToSlice()...,
	)
	if removed > 0 {
		s.logger.DebugContext(ctx, "Records removed", applog.FieldCount, removed)
	}

	s.publish(ctx, amqp.ChangeCleared, 0)
	return nil
}

// swap installs next as the current ledger. Callers hold s.mu.
func (s *TransactionService) swap(next core.Collection) {
	s.current = next
	s.revision++
	s.search.Purge()
}

// publish announces a committed change. It runs after s.mu is released, so
// concurrent writers may publish out of order and count is only a hint.
// Consumers reload the whole ledger on every event and never apply counts.
func (s *TransactionService) publish(ctx context.Context, kind amqp.ChangeKind, count int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, s.key, kind, count); err != nil {
		// The write already succeeded; the worker's scheduled resync catches up.
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			applog.NewFields().WithOperation(applog.OpPublish).WithError(err).ToSlice()...)
	}
}

// Transactions returns the whole ledger in insertion order.
func (s *TransactionService) Transactions() core.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Search returns the records whose description or category contains
// query, ignoring case. Results are memoized per ledger revision.
func (s *TransactionService) Search(query string) core.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if query == "" {
		return s.current
	}

	key := strconv.FormatUint(s.revision, 10) + "\x00" + query
	if hit, ok := s.search.Get(key); ok {
		return hit
	}
	result := core.Filter(s.current, query)
	s.search.Set(key, result)
	return result
}

// Summary computes the derived reads over the unfiltered ledger.
func (s *TransactionService) Summary() core.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(s.current)
}

// Revision increases by one with every successful mutation.
func (s *TransactionService) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
