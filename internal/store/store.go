package store

import (
	"context"
	"errors"

	"ppob_wallet/internal/domain"

	"gorm.io/gorm"
)

// Store is the gorm backed persistence for the ledger. The *gorm.DB pool is
// injected, Store holds no global state.
type Store struct {
	db *gorm.DB
}

// New wraps an opened gorm connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Balances returns a balance store whose mutations open their own transaction
func (s *Store) Balances() domain.BalanceStore {
	return &BalanceStore{db: s.db}
}

// Transactions returns the transaction log outside any unit of work
func (s *Store) Transactions() domain.TransactionLog {
	return &TransactionLog{db: s.db}
}

// Catalog returns the read-only service catalog
func (s *Store) Catalog() domain.ServiceCatalog {
	return &ServiceCatalog{db: s.db}
}

// WithinTx binds a balance store and a transaction log to one database transaction
func (s *Store) WithinTx(ctx context.Context, fn func(domain.BalanceStore, domain.TransactionLog) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BalanceStore{db: tx, inTx: true}, &TransactionLog{db: tx}) // Error rolls back, nil commits
	})
}

// storageErr tags a raw driver error, leaving already tagged errors alone
func storageErr(err error) error {
	var tagged *domain.Error
	if errors.As(err, &tagged) {
		return err // Already carries a kind
	}
	return domain.ErrStorageFailure.Wrap(err)
}
