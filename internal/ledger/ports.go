package ledger

import (
	"context"
	"time"

	"ppob_wallet/internal/domain"
)

// Store is the persistence the ledger runs on
type Store interface {
	domain.UnitOfWork
	Balances() domain.BalanceStore
	Transactions() domain.TransactionLog
	Catalog() domain.ServiceCatalog
}

// Cache is a best effort read cache. Misses and errors fall through to the store.
// Entries are keyed by a per-user generation counter; bumping the counter
// retires every entry written under an older generation.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Version(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) (int64, error)
}

// Publisher announces committed transactions
type Publisher interface {
	PublishTransaction(ctx context.Context, evt domain.TransactionEvent) error
}

// Recorder collects ledger metrics
type Recorder interface {
	ObserveOperation(op, result string, elapsed time.Duration)
	AddVolume(txType domain.TransactionType, amount int64)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, interface{}) (bool, error)       { return false, nil }
func (nopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (nopCache) Version(context.Context, string) (int64, error)                { return 0, nil }
func (nopCache) Bump(context.Context, string) (int64, error)                   { return 0, nil }

type nopPublisher struct{}

func (nopPublisher) PublishTransaction(context.Context, domain.TransactionEvent) error { return nil }

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
func (nopRecorder) AddVolume(domain.TransactionType, int64)        {}
