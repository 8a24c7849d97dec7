package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/feral-file/lattice-ledger/internal/domain"
	"github.com/feral-file/lattice-ledger/internal/fees"
	"github.com/feral-file/lattice-ledger/internal/store/schema"
)

// memStore is an in-memory Store used for tests and single-node deploys
// without Postgres. One mutex guards the whole state: every mutating
// operation runs in a single critical section, which reproduces the
// whole-call atomicity of the reference environment directly.
type memStore struct {
	mu sync.RWMutex

	collections map[uint64]*schema.Collection
	parameters  map[uint64]*schema.LatticeParameters
	tokens      map[domain.TokenID]*schema.Token
	listings    map[domain.TokenID]*schema.Listing
	// ownerships is the derived per-account index: owner -> token -> acquisition height
	ownerships map[string]map[domain.TokenID]uint64
	balances   map[string]uint64

	adminSet         bool
	adminAddress     string
	feeBps           uint32
	nextCollectionID uint64
	height           uint64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memStore{
		collections:      make(map[uint64]*schema.Collection),
		parameters:       make(map[uint64]*schema.LatticeParameters),
		tokens:           make(map[domain.TokenID]*schema.Token),
		listings:         make(map[domain.TokenID]*schema.Listing),
		ownerships:       make(map[string]map[domain.TokenID]uint64),
		balances:         make(map[string]uint64),
		nextCollectionID: 1,
	}
}

func (s *memStore) nextHeight() uint64 {
	s.height++
	return s.height
}

func (s *memStore) addOwnership(owner string, id domain.TokenID, height uint64) {
	byOwner, ok := s.ownerships[owner]
	if !ok {
		byOwner = make(map[domain.TokenID]uint64)
		s.ownerships[owner] = byOwner
	}
	byOwner[id] = height
}

func (s *memStore) removeOwnership(owner string, id domain.TokenID) {
	if byOwner, ok := s.ownerships[owner]; ok {
		delete(byOwner, id)
	}
}

func copyCollection(c *schema.Collection) *schema.Collection {
	out := *c
	return &out
}

func copyToken(t *schema.Token) *schema.Token {
	out := *t
	return &out
}

func copyListing(l *schema.Listing) *schema.Listing {
	out := *l
	return &out
}

func (s *memStore) CreateCollection(_ context.Context, input CreateCollectionInput) (*schema.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	connections, err := json.Marshal(input.Parameters.Connections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal connections: %w", err)
	}
	transformations, err := json.Marshal(input.Parameters.Transformations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transformations: %w", err)
	}
	extraParams, err := json.Marshal(input.Parameters.ExtraParams)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extra params: %w", err)
	}

	height := s.nextHeight()
	id := s.nextCollectionID
	s.nextCollectionID++

	collection := &schema.Collection{
		ID:              id,
		CreatorAddress:  input.CreatorAddress,
		Name:            input.Name,
		Description:     input.Description,
		MaxSupply:       input.MaxSupply,
		CurrentSupply:   0,
		MintPrice:       input.MintPrice,
		RoyaltyBps:      input.RoyaltyBps,
		IsOpen:          true,
		CreatedAtHeight: height,
		MetadataLocator: input.MetadataLocator,
		ParamsHash:      input.ParamsHash,
		CreatedAt:       time.Now().UTC(),
	}
	s.collections[id] = collection
	s.parameters[id] = &schema.LatticeParameters{
		CollectionID:    id,
		Dimensions:      input.Parameters.Dimensions,
		NodeCount:       input.Parameters.NodeCount,
		ColorScheme:     input.Parameters.ColorScheme,
		Connections:     connections,
		Transformations: transformations,
		ExtraParams:     extraParams,
		CreatedAt:       collection.CreatedAt,
	}

	return copyCollection(collection), nil
}

func (s *memStore) SetCollectionStatus(_ context.Context, collectionID uint64, isOpen bool, caller string) (*schema.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, ok := s.collections[collectionID]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	if collection.CreatorAddress != caller {
		return nil, domain.ErrNotAuthorized
	}

	collection.IsOpen = isOpen
	return copyCollection(collection), nil
}

func (s *memStore) GetCollection(_ context.Context, collectionID uint64) (*schema.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collection, ok := s.collections[collectionID]
	if !ok {
		return nil, nil
	}
	return copyCollection(collection), nil
}

func (s *memStore) ListCollections(_ context.Context, limit int, offset uint64) ([]*schema.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.collections))
	for id := range s.collections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	collections := make([]*schema.Collection, 0, limit)
	for i, id := range ids {
		if uint64(i) < offset {
			continue
		}
		if len(collections) >= limit {
			break
		}
		collections = append(collections, copyCollection(s.collections[id]))
	}
	return collections, nil
}

func (s *memStore) CountCollections(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.collections)), nil
}

func (s *memStore) GetLatticeParameters(_ context.Context, collectionID uint64) (*schema.LatticeParameters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	params, ok := s.parameters[collectionID]
	if !ok {
		return nil, nil
	}
	out := *params
	return &out, nil
}

func (s *memStore) MintToken(_ context.Context, input MintTokenInput) (*schema.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, ok := s.collections[input.CollectionID]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	if !collection.IsOpen {
		return nil, domain.ErrCollectionClosed
	}
	if collection.CurrentSupply >= collection.MaxSupply {
		return nil, domain.ErrCollectionLimitReached
	}
	if len(s.ownerships[input.MinterAddress]) >= domain.MaxOwnedTokens {
		return nil, domain.ErrOwnerLimitReached
	}
	if collection.MintPrice > 0 {
		if s.balances[input.MinterAddress] < collection.MintPrice {
			return nil, domain.ErrInsufficientPayment
		}
		if input.MinterAddress != collection.CreatorAddress {
			s.balances[input.MinterAddress] -= collection.MintPrice
			s.balances[collection.CreatorAddress] += collection.MintPrice
		}
	}

	height := s.nextHeight()
	collection.CurrentSupply++
	tokenID := domain.TokenID{CollectionID: collection.ID, TokenIndex: collection.CurrentSupply}

	token := &schema.Token{
		CollectionID:    tokenID.CollectionID,
		TokenIndex:      tokenID.TokenIndex,
		OwnerAddress:    input.MinterAddress,
		Seed:            input.Seed,
		MintedAtHeight:  height,
		MetadataLocator: tokenID.MetadataLocator(collection.MetadataLocator),
		CreatedAt:       time.Now().UTC(),
	}
	s.tokens[tokenID] = token
	s.addOwnership(input.MinterAddress, tokenID, height)

	return copyToken(token), nil
}

func (s *memStore) TransferToken(_ context.Context, tokenID domain.TokenID, from, to string) (*TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, domain.ErrNftNotFound
	}
	if token.OwnerAddress != from {
		return nil, domain.ErrNotOwner
	}
	if from == to {
		return &TransferResult{Token: copyToken(token), Height: s.height}, nil
	}
	if len(s.ownerships[to]) >= domain.MaxOwnedTokens {
		return nil, domain.ErrOwnerLimitReached
	}

	height := s.nextHeight()
	delete(s.listings, tokenID)
	token.OwnerAddress = to
	s.removeOwnership(from, tokenID)
	s.addOwnership(to, tokenID, height)

	return &TransferResult{Token: copyToken(token), Height: height}, nil
}

func (s *memStore) GetToken(_ context.Context, tokenID domain.TokenID) (*schema.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, nil
	}
	return copyToken(token), nil
}

func (s *memStore) GetOwnedTokens(_ context.Context, owner string, limit int, offset uint64) ([]*schema.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id     domain.TokenID
		height uint64
	}
	entries := make([]entry, 0, len(s.ownerships[owner]))
	for id, height := range s.ownerships[owner] {
		entries = append(entries, entry{id: id, height: height})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].height != entries[j].height {
			return entries[i].height < entries[j].height
		}
		if entries[i].id.CollectionID != entries[j].id.CollectionID {
			return entries[i].id.CollectionID < entries[j].id.CollectionID
		}
		return entries[i].id.TokenIndex < entries[j].id.TokenIndex
	})

	tokens := make([]*schema.Token, 0, limit)
	for i, e := range entries {
		if uint64(i) < offset {
			continue
		}
		if len(tokens) >= limit {
			break
		}
		tokens = append(tokens, copyToken(s.tokens[e.id]))
	}
	return tokens, nil
}

func (s *memStore) CreateListing(_ context.Context, input CreateListingInput) (*schema.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokenID := domain.TokenID{CollectionID: input.CollectionID, TokenIndex: input.TokenIndex}
	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, domain.ErrNftNotFound
	}
	if token.OwnerAddress != input.SellerAddress {
		return nil, domain.ErrNotOwner
	}
	if _, exists := s.listings[tokenID]; exists {
		return nil, domain.ErrListingExists
	}

	height := s.nextHeight()
	listing := &schema.Listing{
		CollectionID:   input.CollectionID,
		TokenIndex:     input.TokenIndex,
		SellerAddress:  input.SellerAddress,
		Price:          input.Price,
		ListedAtHeight: height,
		CreatedAt:      time.Now().UTC(),
	}
	s.listings[tokenID] = listing

	return copyListing(listing), nil
}

func (s *memStore) DeleteListing(_ context.Context, tokenID domain.TokenID, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[tokenID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if listing.SellerAddress != caller {
		return domain.ErrNotAuthorized
	}

	delete(s.listings, tokenID)
	return nil
}

func (s *memStore) GetListing(_ context.Context, tokenID domain.TokenID) (*schema.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[tokenID]
	if !ok {
		return nil, nil
	}
	return copyListing(listing), nil
}

func (s *memStore) BuyToken(_ context.Context, input BuyTokenInput) (*SaleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokenID := domain.TokenID{CollectionID: input.CollectionID, TokenIndex: input.TokenIndex}
	listing, ok := s.listings[tokenID]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	if listing.SellerAddress == input.BuyerAddress {
		return nil, domain.ErrNotAuthorized
	}

	collection, ok := s.collections[input.CollectionID]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, domain.ErrNftNotFound
	}
	// A listing only exists while the seller owns the token
	if token.OwnerAddress != listing.SellerAddress {
		return nil, domain.ErrListingNotFound
	}
	if len(s.ownerships[input.BuyerAddress]) >= domain.MaxOwnedTokens {
		return nil, domain.ErrOwnerLimitReached
	}
	if !s.adminSet {
		return nil, fmt.Errorf("platform state not seeded")
	}
	if s.balances[input.BuyerAddress] < listing.Price {
		return nil, domain.ErrInsufficientPayment
	}

	settlement := fees.Split(listing.Price, s.feeBps, collection.RoyaltyBps)
	s.balances[input.BuyerAddress] -= listing.Price
	s.balances[s.adminAddress] += settlement.PlatformFee
	s.balances[collection.CreatorAddress] += settlement.Royalty
	s.balances[listing.SellerAddress] += settlement.SellerAmount

	height := s.nextHeight()
	delete(s.listings, tokenID)
	s.removeOwnership(listing.SellerAddress, tokenID)
	token.OwnerAddress = input.BuyerAddress
	s.addOwnership(input.BuyerAddress, tokenID, height)

	return &SaleResult{
		Token:      copyToken(token),
		Seller:     listing.SellerAddress,
		Buyer:      input.BuyerAddress,
		Price:      listing.Price,
		Settlement: settlement,
		Height:     height,
	}, nil
}

func (s *memStore) Deposit(_ context.Context, address string, amount uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[address] += amount
	return s.balances[address], nil
}

func (s *memStore) GetBalance(_ context.Context, address string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[address], nil
}

func (s *memStore) GetPlatformState(_ context.Context) (*PlatformState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.adminSet {
		return nil, nil
	}
	return &PlatformState{AdminAddress: s.adminAddress, FeeBps: s.feeBps}, nil
}

func (s *memStore) SetPlatformFeeBps(_ context.Context, newFeeBps uint32, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.adminSet || s.adminAddress != caller {
		return domain.ErrNotAuthorized
	}
	s.feeBps = newFeeBps
	return nil
}

func (s *memStore) SetAdmin(_ context.Context, newAdmin string, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.adminSet || s.adminAddress != caller {
		return domain.ErrNotAuthorized
	}
	s.adminAddress = newAdmin
	return nil
}

func (s *memStore) SeedPlatformState(_ context.Context, admin string, feeBps uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adminSet {
		return nil
	}
	s.adminSet = true
	s.adminAddress = admin
	s.feeBps = feeBps
	return nil
}
