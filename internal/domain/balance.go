package domain

import "time"

// Balance Model
type Balance struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`                             // Owning user, one row per user
	Amount    int64     `gorm:"not null;check:chk_balances_amount,amount >= 0" json:"balance"` // Smallest currency unit, never negative
	CreatedAt time.Time `json:"created_at"`                                                    // Row creation time
	UpdatedAt time.Time `json:"updated_at"`                                                    // Last mutation time
}

// TableName pins the balances table name
func (Balance) TableName() string {
	return "balances"
}
