package schema

import "time"

// TokenOwnership represents the token_ownerships table - the per-account
// ownership index. It is derived state, never the source of truth: a row
// (owner, collection, index) exists iff tokens.owner_address equals owner,
// and every mutation happens in the same transaction as the owner change.
// Keying by the full triple gives constant-time membership and removal
// instead of scanning an owner's whole portfolio.
type TokenOwnership struct {
	OwnerAddress string `gorm:"column:owner_address;primaryKey;type:text"`
	CollectionID uint64 `gorm:"column:collection_id;primaryKey;autoIncrement:false;uniqueIndex:idx_ownerships_token,priority:1"`
	TokenIndex   uint64 `gorm:"column:token_index;primaryKey;autoIncrement:false;uniqueIndex:idx_ownerships_token,priority:2"`
	// AcquiredAtHeight orders an account's portfolio for enumeration
	AcquiredAtHeight uint64    `gorm:"column:acquired_at_height;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenOwnership model
func (TokenOwnership) TableName() string {
	return "token_ownerships"
}
