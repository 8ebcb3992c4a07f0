package domain

import "context"

// BalanceStore is the single source of truth for user balances
type BalanceStore interface {
	// Get returns the current balance or ErrBalanceNotFound. It never creates a row.
	Get(ctx context.Context, userID string) (*Balance, error)
	// CreateIfAbsent inserts a zero balance, or returns the existing row.
	CreateIfAbsent(ctx context.Context, userID string) (*Balance, error)
	// Add credits amount under the row lock, creating the row seeded with amount if missing.
	Add(ctx context.Context, userID string, amount int64) (*Balance, error)
	// Deduct debits amount under the row lock, failing with ErrInsufficientFunds.
	Deduct(ctx context.Context, userID string, amount int64) (*Balance, error)
}

// TransactionLog is the append-only record of ledger events
type TransactionLog interface {
	Append(ctx context.Context, t *Transaction) (*Transaction, error)
	FindByInvoice(ctx context.Context, invoiceNumber string) (*Transaction, error)
	// History returns the user's records newest first plus the total count.
	// A nil limit means no limit, offset is applied either way.
	History(ctx context.Context, userID string, limit *int, offset int) ([]Transaction, int64, error)
}

// ServiceCatalog looks up payable services
type ServiceCatalog interface {
	FindByCode(ctx context.Context, code string) (*Service, error)
}

// UnitOfWork runs fn inside one database transaction. Both stores handed to fn
// are bound to that transaction: it commits when fn returns nil and rolls back
// otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(balances BalanceStore, log TransactionLog) error) error
}
