package store

import (
	"context"
	"errors"
	"math"
	"time"

	"ppob_wallet/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionLog implements domain.TransactionLog on the transactions table
type TransactionLog struct {
	db *gorm.DB
}

// Append validates and inserts t. The id and creation time are assigned here.
func (l *TransactionLog) Append(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err // Invoice, amount and type checked before insert
	}
	if t.ID == "" {
		t.ID = uuid.NewString() // Server assigned id
	}
	t.CreatedAt = time.Now() // Server assigned timestamp

	if err := l.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateInvoice.Wrap(err) // Unique index on invoice_number
		}
		return nil, storageErr(err)
	}
	return t, nil
}

// FindByInvoice looks a record up by its invoice number
func (l *TransactionLog) FindByInvoice(ctx context.Context, invoiceNumber string) (*domain.Transaction, error) {
	var rec domain.Transaction
	err := l.db.WithContext(ctx).Where("invoice_number = ?", invoiceNumber).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &rec, nil
}

// History pages through a user's records newest first
func (l *TransactionLog) History(ctx context.Context, userID string, limit *int, offset int) ([]domain.Transaction, int64, error) {
	if offset < 0 {
		offset = 0 // Clamp negative offsets
	}

	var total int64
	err := l.db.WithContext(ctx).Model(&domain.Transaction{}).Where("user_id = ?", userID).Count(&total).Error
	if err != nil {
		return nil, 0, storageErr(err)
	}

	query := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_on DESC") // Newest first
	switch {
	case limit != nil && *limit > 0:
		query = query.Limit(*limit)
	case offset > 0 && l.db.Dialector.Name() == "mysql":
		query = query.Limit(math.MaxInt) // mysql rejects OFFSET without LIMIT
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	records := make([]domain.Transaction, 0) // Empty page encodes as []
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, storageErr(err)
	}
	return records, total, nil
}
