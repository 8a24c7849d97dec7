package schema

import "time"

// Account represents the accounts table - the payment-currency balance
// ledger consumed by mint and sale settlement. Balances are unsigned base
// units; every transfer debits and credits inside the transaction that
// mutates ownership, so payment and ownership can never diverge.
type Account struct {
	Address   string    `gorm:"column:address;primaryKey;type:text"`
	Balance   uint64    `gorm:"column:balance;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}
