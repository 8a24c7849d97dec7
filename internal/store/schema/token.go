package schema

import "time"

// Token represents the tokens table - one minted, individually owned
// instance within a collection, keyed by (collection_id, token_index).
// Indexes are assigned sequentially from 1 and never reused; there is no
// burn, so a token exists forever once minted.
type Token struct {
	CollectionID uint64 `gorm:"column:collection_id;primaryKey;autoIncrement:false"`
	TokenIndex   uint64 `gorm:"column:token_index;primaryKey;autoIncrement:false"`
	// OwnerAddress is the single source of truth for ownership; it is
	// mutated only by the transfer path, never written directly
	OwnerAddress string `gorm:"column:owner_address;not null;type:text;index"`
	// Seed feeds the deterministic renderer together with the collection's lattice parameters
	Seed string `gorm:"column:seed;not null;type:text"`
	// MintedAtHeight is the ledger height at mint time
	MintedAtHeight uint64 `gorm:"column:minted_at_height;not null"`
	// MetadataLocator is derived at mint: collection base locator + "/" + token index
	MetadataLocator string    `gorm:"column:metadata_locator;not null;type:text"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
