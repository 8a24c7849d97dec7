package schema

import "time"

// Collection represents the collections table - a named, capped series of
// lattice assets sharing one parameter set and royalty terms
type Collection struct {
	// ID is the sequential collection identifier, assigned monotonically
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CreatorAddress is the account that created the collection and receives royalties
	CreatorAddress string `gorm:"column:creator_address;not null;type:text;index"`
	Name           string `gorm:"column:name;not null;type:text"`
	Description    string `gorm:"column:description;type:text"`
	// MaxSupply caps the number of tokens that can ever be minted (> 0)
	MaxSupply uint64 `gorm:"column:max_supply;not null"`
	// CurrentSupply is the number of tokens minted so far; token indexes run 1..CurrentSupply
	CurrentSupply uint64 `gorm:"column:current_supply;not null;default:0"`
	// MintPrice is the amount transferred to the creator on each mint, in base units
	MintPrice uint64 `gorm:"column:mint_price;not null"`
	// RoyaltyBps is the creator royalty on secondary sales, basis points out of 10000 (max 3000)
	RoyaltyBps uint32 `gorm:"column:royalty_bps;not null"`
	// IsOpen controls whether minting is currently allowed; only the creator may flip it
	IsOpen bool `gorm:"column:is_open;not null;default:true"`
	// CreatedAtHeight is the ledger height at creation time
	CreatedAtHeight uint64 `gorm:"column:created_at_height;not null"`
	// MetadataLocator is the base locator; token locators are derived as base + "/" + index
	MetadataLocator string `gorm:"column:metadata_locator;not null;type:text"`
	// ParamsHash is the sha256 of the RFC 8785 canonical form of the lattice parameters
	ParamsHash string    `gorm:"column:params_hash;not null;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Parameters *LatticeParameters `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	Tokens     []Token            `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
