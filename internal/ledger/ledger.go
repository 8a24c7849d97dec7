package ledger

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/lattice-ledger/internal/adapter"
	"github.com/feral-file/lattice-ledger/internal/domain"
	"github.com/feral-file/lattice-ledger/internal/logger"
	"github.com/feral-file/lattice-ledger/internal/messaging"
	"github.com/feral-file/lattice-ledger/internal/store"
	"github.com/feral-file/lattice-ledger/internal/store/schema"
)

// CreateCollectionRequest carries the caller-supplied fields for
// registering a new collection
type CreateCollectionRequest struct {
	CreatorAddress  string
	Name            string
	Description     string
	MaxSupply       uint64
	MintPrice       uint64
	RoyaltyBps      uint32
	MetadataLocator string
	Parameters      domain.LatticeParameters
}

// Ledger is the application service over the store: it validates inputs,
// derives the lattice parameter hash, delegates the atomic mutation to the
// store, and publishes a ledger event for every successful mutation.
type Ledger interface {
	// CreateCollection validates and registers a new collection
	CreateCollection(ctx context.Context, req CreateCollectionRequest) (*schema.Collection, error)
	// SetCollectionStatus opens or closes minting; creator only
	SetCollectionStatus(ctx context.Context, collectionID uint64, isOpen bool, caller string) (*schema.Collection, error)
	// GetCollection retrieves a collection; nil when absent
	GetCollection(ctx context.Context, collectionID uint64) (*schema.Collection, error)
	// ListCollections retrieves collections ordered by id
	ListCollections(ctx context.Context, limit int, offset uint64) ([]*schema.Collection, error)
	// CountCollections returns the number of registered collections
	CountCollections(ctx context.Context) (uint64, error)
	// GetLatticeParameters retrieves a collection's immutable parameters
	GetLatticeParameters(ctx context.Context, collectionID uint64) (*schema.LatticeParameters, error)

	// Mint mints the next token in a collection to the minter
	Mint(ctx context.Context, collectionID uint64, seed, minter string) (*schema.Token, error)
	// Transfer moves a token between accounts; current owner only
	Transfer(ctx context.Context, tokenID domain.TokenID, from, to string) (*schema.Token, error)
	// GetToken retrieves a token; nil when absent
	GetToken(ctx context.Context, tokenID domain.TokenID) (*schema.Token, error)
	// GetOwnedTokens retrieves an account's tokens in acquisition order
	GetOwnedTokens(ctx context.Context, owner string, limit int, offset uint64) ([]*schema.Token, error)

	// ListForSale creates a fixed-price listing; owner only
	ListForSale(ctx context.Context, tokenID domain.TokenID, seller string, price uint64) (*schema.Listing, error)
	// CancelListing removes a listing; its seller only
	CancelListing(ctx context.Context, tokenID domain.TokenID, caller string) error
	// GetListing retrieves a token's listing; nil when absent
	GetListing(ctx context.Context, tokenID domain.TokenID) (*schema.Listing, error)
	// Buy settles a sale at the listed price
	Buy(ctx context.Context, tokenID domain.TokenID, buyer string) (*store.SaleResult, error)

	// Deposit credits an account and returns the new balance
	Deposit(ctx context.Context, address string, amount uint64) (uint64, error)
	// GetBalance returns an account's balance
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetPlatformState retrieves the platform admin and fee rate
	GetPlatformState(ctx context.Context) (*store.PlatformState, error)
	// SetPlatformFeeBps updates the platform fee rate; admin only
	SetPlatformFeeBps(ctx context.Context, newFeeBps uint32, caller string) error
	// SetAdmin hands platform administration to a new account; admin only
	SetAdmin(ctx context.Context, newAdmin, caller string) error
}

type ledgerService struct {
	store     store.Store
	publisher messaging.Publisher
	clock     adapter.Clock
}

// New creates a Ledger over the given store. Events are published through
// the publisher after each successful mutation; a NoopPublisher is fine.
func New(s store.Store, p messaging.Publisher, clock adapter.Clock) Ledger {
	return &ledgerService{
		store:     s,
		publisher: p,
		clock:     clock,
	}
}

func (l *ledgerService) CreateCollection(ctx context.Context, req CreateCollectionRequest) (*schema.Collection, error) {
	if req.CreatorAddress == "" {
		return nil, fmt.Errorf("%w: creator address is required", domain.ErrInvalidParameters)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidParameters)
	}
	if req.MaxSupply == 0 {
		return nil, fmt.Errorf("%w: max supply must be > 0", domain.ErrInvalidParameters)
	}
	if req.MetadataLocator == "" {
		return nil, fmt.Errorf("%w: metadata locator is required", domain.ErrInvalidParameters)
	}
	if req.RoyaltyBps > domain.MaxRoyaltyBps {
		return nil, fmt.Errorf("%w: royalty %d bps exceeds maximum %d", domain.ErrInvalidRoyalty, req.RoyaltyBps, domain.MaxRoyaltyBps)
	}
	if err := req.Parameters.Validate(); err != nil {
		return nil, err
	}

	hash, err := req.Parameters.CanonicalHash()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidParameters, err.Error())
	}

	collection, err := l.store.CreateCollection(ctx, store.CreateCollectionInput{
		CreatorAddress:  req.CreatorAddress,
		Name:            req.Name,
		Description:     req.Description,
		MaxSupply:       req.MaxSupply,
		MintPrice:       req.MintPrice,
		RoyaltyBps:      req.RoyaltyBps,
		MetadataLocator: req.MetadataLocator,
		ParamsHash:      hash,
		Parameters:      req.Parameters,
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, &domain.LedgerEvent{
		Type:         domain.EventTypeCollectionCreated,
		Height:       collection.CreatedAtHeight,
		CollectionID: collection.ID,
		FromAddress:  collection.CreatorAddress,
	})

	return collection, nil
}

func (l *ledgerService) SetCollectionStatus(ctx context.Context, collectionID uint64, isOpen bool, caller string) (*schema.Collection, error) {
	collection, err := l.store.SetCollectionStatus(ctx, collectionID, isOpen, caller)
	if err != nil {
		return nil, err
	}

	l.publish(ctx, &domain.LedgerEvent{
		Type:         domain.EventTypeCollectionStatusChanged,
		CollectionID: collection.ID,
		FromAddress:  caller,
	})

	return collection, nil
}

func (l *ledgerService) GetCollection(ctx context.Context, collectionID uint64) (*schema.Collection, error) {
	return l.store.GetCollection(ctx, collectionID)
}

func (l *ledgerService) ListCollections(ctx context.Context, limit int, offset uint64) ([]*schema.Collection, error) {
	return l.store.ListCollections(ctx, limit, offset)
}

func (l *ledgerService) CountCollections(ctx context.Context) (uint64, error) {
	return l.store.CountCollections(ctx)
}

func (l *ledgerService) GetLatticeParameters(ctx context.Context, collectionID uint64) (*schema.LatticeParameters, error) {
	return l.store.GetLatticeParameters(ctx, collectionID)
}

func (l *ledgerService) Mint(ctx context.Context, collectionID uint64, seed, minter string) (*schema.Token, error) {
	if seed == "" {
		return nil, fmt.Errorf("%w: seed is required", domain.ErrInvalidParameters)
	}
	if minter == "" {
		return nil, fmt.Errorf("%w: minter address is required", domain.ErrInvalidParameters)
	}

	token, err := l.store.MintToken(ctx, store.MintTokenInput{
		CollectionID:  collectionID,
		Seed:          seed,
		MinterAddress: minter,
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, &domain.LedgerEvent{
		Type:         domain.EventTypeTokenMinted,
		Height:       token.MintedAtHeight,
		CollectionID: token.CollectionID,
		TokenIndex:   token.TokenIndex,
		ToAddress:    token.OwnerAddress,
	})

	return token, nil
}

func (l *ledgerService) Transfer(ctx context.Context, tokenID domain.TokenID, from, to string) (*schema.Token, error) {
	if to == "" {
		return nil, fmt.Errorf("%w: recipient address is required", domain.ErrInvalidParameters)
	}

	result, err := l.store.TransferToken(ctx, tokenID, from, to)
	if err != nil {
		return nil, err
	}

	l.publish(ctx, &domain.LedgerEvent{
		Type:         domain.EventTypeTokenTransferred,
		Height:       result.Height,
		CollectionID: tokenID.CollectionID,
		TokenIndex:   tokenID.TokenIndex,
		FromAddress:  from,
		ToAddress:    to,
	})

	return result.Token, nil
}

func (l *ledgerService) GetToken(ctx context.Context, tokenID domain.TokenID) (*schema.Token, error) {
	return l.store.GetToken(ctx, tokenID)
}

func (l *ledgerService) GetOwnedTokens(ctx context.Context, owner string, limit int, offset uint64) ([]*schema.Token, error) {
	return l.store.GetOwnedTokens(ctx, owner, limit, offset)
}

func (l *ledgerService) ListForSale(ctx context.Context, tokenID domain.TokenID, seller string, price uint64) (*schema.Listing, error) {
	if price == 0 {
		return nil, fmt.Errorf("%w: price must be > 0", domain.ErrInvalidParameters)
	}

	listing, err := l.store.CreateListing(ctx, store.CreateListingInput{
		CollectionID:  tokenID.CollectionID,
		TokenIndex:    tokenID.TokenIndex,
		SellerAddress: seller,
		Price:         price,
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, &domain.LedgerEvent{
		Type:         domain.EventTypeTokenListed,
		Height:       listing.ListedAtHeight,
		CollectionID: tokenID.CollectionID,
		TokenIndex:   tokenID.TokenIndex,
		FromAddress:  seller,
		Price:        listing.Price,
	})

	return listing, nil
}

func (l *ledgerService) CancelListing(ctx context.Context, tokenID domain.TokenID, caller string) error {
	if err := l.store.DeleteListing(ctx, tokenID, caller); err != nil {
		return err
	}

	l.publish(ctx, &domain.LedgerEvent{
		Type:         domain.EventTypeListingCancelled,
		CollectionID: tokenID.CollectionID,
		TokenIndex:   tokenID.TokenIndex,
		FromAddress:  caller,
	})

	return nil
}

func (l *ledgerService) GetListing(ctx context.Context, tokenID domain.TokenID) (*schema.Listing, error) {
	return l.store.GetListing(ctx, tokenID)
}

func (l *ledgerService) Buy(ctx context.Context, tokenID domain.TokenID, buyer string) (*store.SaleResult, error) {
	if buyer == "" {
		return nil, fmt.Errorf("%w: buyer address is required", domain.ErrInvalidParameters)
	}

	result, err := l.store.BuyToken(ctx, store.BuyTokenInput{
		CollectionID: tokenID.CollectionID,
		TokenIndex:   tokenID.TokenIndex,
		BuyerAddress: buyer,
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, &domain.LedgerEvent{
		Type:         domain.EventTypeSaleSettled,
		Height:       result.Height,
		CollectionID: tokenID.CollectionID,
		TokenIndex:   tokenID.TokenIndex,
		FromAddress:  result.Seller,
		ToAddress:    result.Buyer,
		Price:        result.Price,
		PlatformFee:  result.Settlement.PlatformFee,
		Royalty:      result.Settlement.Royalty,
		SellerAmount: result.Settlement.SellerAmount,
	})

	return result, nil
}

func (l *ledgerService) Deposit(ctx context.Context, address string, amount uint64) (uint64, error) {
	if address == "" {
		return 0, fmt.Errorf("%w: address is required", domain.ErrInvalidParameters)
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must be > 0", domain.ErrInvalidParameters)
	}
	return l.store.Deposit(ctx, address, amount)
}

func (l *ledgerService) GetBalance(ctx context.Context, address string) (uint64, error) {
	return l.store.GetBalance(ctx, address)
}

func (l *ledgerService) GetPlatformState(ctx context.Context) (*store.PlatformState, error) {
	return l.store.GetPlatformState(ctx)
}

func (l *ledgerService) SetPlatformFeeBps(ctx context.Context, newFeeBps uint32, caller string) error {
	if newFeeBps > domain.MaxPlatformFeeBps {
		return fmt.Errorf("%w: platform fee %d bps exceeds maximum %d", domain.ErrInvalidParameters, newFeeBps, domain.MaxPlatformFeeBps)
	}
	return l.store.SetPlatformFeeBps(ctx, newFeeBps, caller)
}

func (l *ledgerService) SetAdmin(ctx context.Context, newAdmin, caller string) error {
	if newAdmin == "" {
		return fmt.Errorf("%w: new admin address is required", domain.ErrInvalidParameters)
	}
	return l.store.SetAdmin(ctx, newAdmin, caller)
}

// publish stamps the event with a ULID and timestamp and hands it to the
// publisher. Delivery failures are logged, never surfaced: the mutation has
// already committed and must not be reported as failed.
func (l *ledgerService) publish(ctx context.Context, event *domain.LedgerEvent) {
	event.ID = ulid.Make().String()
	event.Timestamp = l.clock.Now()

	if err := l.publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to publish ledger event"),
			zap.String("event_type", string(event.Type)),
		)
	}
}
