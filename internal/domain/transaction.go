package domain

import "time"

// TransactionType is the kind of ledger event a transaction records
type TransactionType string

const (
	TransactionTopUp   TransactionType = "TOPUP"   // Balance credited by the user
	TransactionPayment TransactionType = "PAYMENT" // Balance debited for a catalog service
)

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	return t == TransactionTopUp || t == TransactionPayment
}

// Transaction Model
type Transaction struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`                                     // Primary key (UUID)
	InvoiceNumber string          `gorm:"uniqueIndex;size:50;not null" json:"invoice_number"`               // Human readable unique id
	UserID        string          `gorm:"index;size:64;not null" json:"user_id"`                            // Owner of the balance
	ServiceCode   *string         `gorm:"size:50" json:"service_code"`                                      // Null for top ups
	ServiceName   *string         `gorm:"size:255" json:"service_name"`                                     // Null for top ups
	Type          TransactionType `gorm:"column:transaction_type;size:20;not null" json:"transaction_type"` // TOPUP or PAYMENT
	Amount        int64           `gorm:"column:total_amount;not null" json:"total_amount"`                 // Always positive
	Description   string          `gorm:"type:text" json:"description"`                                     // Free text shown in history
	CreatedAt     time.Time       `gorm:"column:created_on;index" json:"created_on"`                        // Assigned on insert
}

// TableName pins the transactions table name
func (Transaction) TableName() string {
	return "transactions"
}

// Validate checks the fields every appended record must carry
func (t *Transaction) Validate() error {
	if t.UserID == "" {
		return ErrInvalidRequest.WithMessage("User ID diperlukan")
	}
	if t.InvoiceNumber == "" {
		return ErrInvalidRequest.WithMessage("Invoice number diperlukan")
	}
	if !t.Type.Valid() {
		return ErrInvalidRequest.WithMessage("Transaction type harus TOPUP atau PAYMENT")
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// TransactionEvent is published after a ledger transaction commits
type TransactionEvent struct {
	TransactionID string          `json:"transaction_id"`
	InvoiceNumber string          `json:"invoice_number"`
	UserID        string          `json:"user_id"`
	Type          TransactionType `json:"transaction_type"`
	ServiceCode   *string         `json:"service_code,omitempty"`
	Amount        int64           `json:"total_amount"`
	Balance       int64           `json:"balance"`
	CreatedAt     time.Time       `json:"created_on"`
}
