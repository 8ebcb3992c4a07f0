package store

import (
	"context"
	"errors"
	"math"
	"time"

	"ppob_wallet/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BalanceStore implements domain.BalanceStore on the balances table
type BalanceStore struct {
	db   *gorm.DB
	inTx bool // db is already a transaction handle
}

// Get reads the balance with a plain, non-locking select
func (s *BalanceStore) Get(ctx context.Context, userID string) (*domain.Balance, error) {
	var bal domain.Balance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&bal).Error // Plain select
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBalanceNotFound // Never creates
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &bal, nil
}

// CreateIfAbsent inserts a zero balance. A concurrent insert for the same user
// is absorbed by ON CONFLICT DO NOTHING and the winning row is returned.
func (s *BalanceStore) CreateIfAbsent(ctx context.Context, userID string) (*domain.Balance, error) {
	now := time.Now()
	bal := domain.Balance{UserID: userID, Amount: 0, CreatedAt: now, UpdatedAt: now}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&bal).Error // Insert or keep existing
	if err != nil {
		return nil, storageErr(err)
	}
	return s.Get(ctx, userID) // Existing row wins on conflict
}

// WithExclusiveLock selects the user's balance row FOR UPDATE and calls fn while
// the lock is held. The lock lasts until the enclosing transaction ends; outside
// a unit of work a transaction is opened just for fn. bal is nil when the user
// has no row yet.
func (s *BalanceStore) WithExclusiveLock(ctx context.Context, userID string, fn func(tx *gorm.DB, bal *domain.Balance) error) error {
	run := func(tx *gorm.DB) error {
		bal, err := lockRow(tx, userID) // SELECT ... FOR UPDATE
		if err != nil {
			return err
		}
		return fn(tx, bal) // Lock held until commit or rollback
	}
	if s.inTx {
		return run(s.db.WithContext(ctx)) // Join the caller's transaction
	}
	return s.db.WithContext(ctx).Transaction(run) // Standalone transaction
}

func lockRow(tx *gorm.DB, userID string) (*domain.Balance, error) {
	var bal domain.Balance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).Take(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // No row, nothing locked
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &bal, nil
}

// Add credits amount. A missing row is created seeded with amount.
func (s *BalanceStore) Add(ctx context.Context, userID string, amount int64) (*domain.Balance, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount // Credits must be positive
	}

	var out *domain.Balance
	err := s.WithExclusiveLock(ctx, userID, func(tx *gorm.DB, bal *domain.Balance) error {
		if bal == nil { // First credit for this user
			now := time.Now()
			seeded := domain.Balance{UserID: userID, Amount: amount, CreatedAt: now, UpdatedAt: now}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seeded) // Seed row with amount
			if res.Error != nil {
				return storageErr(res.Error)
			}
			if res.RowsAffected == 1 {
				out = &seeded // Seeded, nothing left to add
				return nil
			}
			// lost the insert race, the row exists now
			locked, err := lockRow(tx, userID) // Relock the winner's row
			if err != nil {
				return err
			}
			if locked == nil {
				return domain.ErrStorageFailure.Wrap(errors.New("balance row vanished after insert conflict"))
			}
			bal = locked // Fall through to the update path
		}

		if bal.Amount > math.MaxInt64-amount {
			return domain.ErrInvalidAmount // Would overflow int64
		}
		next, err := writeAmount(tx, bal, bal.Amount+amount) // Read, add, write under the lock
		if err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Deduct debits amount, failing when the user has no row or too little funds
func (s *BalanceStore) Deduct(ctx context.Context, userID string, amount int64) (*domain.Balance, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount // Debits must be positive
	}

	var out *domain.Balance
	err := s.WithExclusiveLock(ctx, userID, func(tx *gorm.DB, bal *domain.Balance) error {
		if bal == nil || bal.Amount < amount {
			return domain.ErrInsufficientFunds // Checked against the locked row
		}
		next, err := writeAmount(tx, bal, bal.Amount-amount) // Balance never goes negative
		if err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeAmount(tx *gorm.DB, bal *domain.Balance, amount int64) (*domain.Balance, error) {
	now := time.Now()
	err := tx.Model(&domain.Balance{}).
		Where("user_id = ?", bal.UserID).
		Updates(map[string]interface{}{"amount": amount, "updated_at": now}).Error
	if err != nil {
		return nil, storageErr(err)
	}
	next := *bal // Snapshot returned to the caller
	next.Amount = amount
	next.UpdatedAt = now
	return &next, nil
}
