package store

import (
	"context"

	"github.com/feral-file/lattice-ledger/internal/domain"
	"github.com/feral-file/lattice-ledger/internal/fees"
	"github.com/feral-file/lattice-ledger/internal/store/schema"
)

// CreateCollectionInput holds everything persisted when a collection is
// registered. The collection row and its lattice parameters are written in
// one transaction; parameters are immutable afterwards.
type CreateCollectionInput struct {
	CreatorAddress  string
	Name            string
	Description     string
	MaxSupply       uint64
	MintPrice       uint64
	RoyaltyBps      uint32
	MetadataLocator string
	ParamsHash      string
	Parameters      domain.LatticeParameters
}

// MintTokenInput holds the inputs for minting one token
type MintTokenInput struct {
	CollectionID  uint64
	Seed          string
	MinterAddress string
}

// CreateListingInput holds the inputs for listing a token for sale
type CreateListingInput struct {
	CollectionID  uint64
	TokenIndex    uint64
	SellerAddress string
	Price         uint64
}

// BuyTokenInput holds the inputs for buying a listed token
type BuyTokenInput struct {
	CollectionID uint64
	TokenIndex   uint64
	BuyerAddress string
}

// TransferResult reports a completed transfer: the token with its new
// owner and the ledger height the transfer was stamped with
type TransferResult struct {
	Token  *schema.Token
	Height uint64
}

// SaleResult reports a settled sale: the token with its new owner, the
// parties, and the exact three-way split of the price
type SaleResult struct {
	Token      *schema.Token
	Seller     string
	Buyer      string
	Price      uint64
	Settlement fees.Settlement
	Height     uint64
}

// PlatformState is the process-wide marketplace configuration: the admin
// account that receives platform fees and may change the rate, and the
// current fee rate in basis points
type PlatformState struct {
	AdminAddress string
	FeeBps       uint32
}

// Store defines the interface for ledger state operations. Every mutating
// operation executes as one atomic unit: all preconditions are checked and
// all effects applied inside a single transaction (or critical section),
// so no caller ever observes a partial update. Precondition failures are
// reported as the sentinel errors in the domain package; read operations
// return (nil, nil) for absence.
type Store interface {
	// CreateCollection persists a new collection with currentSupply=0 and
	// isOpen=true, together with its lattice parameters
	CreateCollection(ctx context.Context, input CreateCollectionInput) (*schema.Collection, error)
	// SetCollectionStatus opens or closes minting; only the creator may call
	SetCollectionStatus(ctx context.Context, collectionID uint64, isOpen bool, caller string) (*schema.Collection, error)
	// GetCollection retrieves a collection by id
	GetCollection(ctx context.Context, collectionID uint64) (*schema.Collection, error)
	// ListCollections retrieves collections ordered by id
	ListCollections(ctx context.Context, limit int, offset uint64) ([]*schema.Collection, error)
	// CountCollections returns the number of registered collections
	CountCollections(ctx context.Context) (uint64, error)
	// GetLatticeParameters retrieves the write-once parameters of a collection
	GetLatticeParameters(ctx context.Context, collectionID uint64) (*schema.LatticeParameters, error)

	// MintToken allocates the next token index, pays the mint price to the
	// creator, records the token, and registers ownership, all atomically
	MintToken(ctx context.Context, input MintTokenInput) (*schema.Token, error)
	// TransferToken moves ownership from `from` to `to`, deleting any
	// listing for the token in the same transaction
	TransferToken(ctx context.Context, tokenID domain.TokenID, from, to string) (*TransferResult, error)
	// GetToken retrieves a token by its identity
	GetToken(ctx context.Context, tokenID domain.TokenID) (*schema.Token, error)
	// GetOwnedTokens retrieves an account's tokens in acquisition order
	GetOwnedTokens(ctx context.Context, owner string, limit int, offset uint64) ([]*schema.Token, error)

	// CreateListing creates a fixed-price listing for a token the seller owns
	CreateListing(ctx context.Context, input CreateListingInput) (*schema.Listing, error)
	// DeleteListing removes a listing; only its seller may cancel
	DeleteListing(ctx context.Context, tokenID domain.TokenID, caller string) error
	// GetListing retrieves the listing for a token
	GetListing(ctx context.Context, tokenID domain.TokenID) (*schema.Listing, error)
	// BuyToken settles a sale: splits the price between platform, creator
	// and seller, transfers ownership, and deletes the listing, atomically
	BuyToken(ctx context.Context, input BuyTokenInput) (*SaleResult, error)

	// Deposit credits an account and returns the new balance
	Deposit(ctx context.Context, address string, amount uint64) (uint64, error)
	// GetBalance returns an account's balance; unknown accounts hold zero
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetPlatformState retrieves the admin account and fee rate
	GetPlatformState(ctx context.Context) (*PlatformState, error)
	// SetPlatformFeeBps updates the fee rate; only the current admin may call
	SetPlatformFeeBps(ctx context.Context, newFeeBps uint32, caller string) error
	// SetAdmin hands platform administration to a new account; only the
	// current admin may call
	SetAdmin(ctx context.Context, newAdmin string, caller string) error
	// SeedPlatformState installs the deployer as first admin with the given
	// fee rate, only if no admin is set yet
	SeedPlatformState(ctx context.Context, admin string, feeBps uint32) error
}
