package schema

import "time"

// Listing represents the listings table - a seller's open offer to sell one
// token at a fixed price. At most one listing per token (enforced by the
// primary key); a listing only exists while the seller still owns the
// token, and any transfer deletes it in the same transaction.
type Listing struct {
	CollectionID  uint64 `gorm:"column:collection_id;primaryKey;autoIncrement:false"`
	TokenIndex    uint64 `gorm:"column:token_index;primaryKey;autoIncrement:false"`
	SellerAddress string `gorm:"column:seller_address;not null;type:text;index"`
	// Price is the fixed sale price in base units (> 0)
	Price uint64 `gorm:"column:price;not null"`
	// ListedAtHeight is the ledger height when the listing was created
	ListedAtHeight uint64    `gorm:"column:listed_at_height;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}
