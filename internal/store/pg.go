package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/lattice-ledger/internal/domain"
	"github.com/feral-file/lattice-ledger/internal/fees"
	"github.com/feral-file/lattice-ledger/internal/store/schema"
)

const (
	kvKeyAdmin  = "platform:admin"
	kvKeyFeeBps = "platform:fee_bps"
	kvKeyHeight = "ledger:height"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the ledger tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Collection{},
		&schema.LatticeParameters{},
		&schema.Token{},
		&schema.TokenOwnership{},
		&schema.Listing{},
		&schema.Account{},
		&schema.KeyValueStore{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// nextHeight increments the ledger height counter under a row lock and
// returns the new value. Must be called inside a transaction.
func nextHeight(tx *gorm.DB) (uint64, error) {
	var kv schema.KeyValueStore
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("key = ?", kvKeyHeight).
		First(&kv).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to lock height counter: %w", err)
	}

	var height uint64
	if kv.Key != "" {
		height, err = strconv.ParseUint(kv.Value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse height counter: %w", err)
		}
	}
	height++

	kv.Key = kvKeyHeight
	kv.Value = strconv.FormatUint(height, 10)
	if err := tx.Save(&kv).Error; err != nil {
		return 0, fmt.Errorf("failed to save height counter: %w", err)
	}

	return height, nil
}

// currentHeight reads the ledger height counter without advancing it
func currentHeight(tx *gorm.DB) (uint64, error) {
	var kv schema.KeyValueStore
	err := tx.Where("key = ?", kvKeyHeight).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read height counter: %w", err)
	}
	height, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse height counter: %w", err)
	}
	return height, nil
}

// lockAccounts ensures rows exist for all addresses and locks them in
// sorted order so concurrent settlements cannot deadlock
func lockAccounts(tx *gorm.DB, addresses ...string) (map[string]*schema.Account, error) {
	unique := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		unique[a] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for a := range unique {
		sorted = append(sorted, a)
	}
	sort.Strings(sorted)

	for _, addr := range sorted {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&schema.Account{Address: addr}).Error; err != nil {
			return nil, fmt.Errorf("failed to ensure account %s: %w", addr, err)
		}
	}

	var rows []*schema.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address IN ?", sorted).
		Order("address").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}

	accounts := make(map[string]*schema.Account, len(rows))
	for _, row := range rows {
		accounts[row.Address] = row
	}
	return accounts, nil
}

// countOwned returns the number of tokens held by an account
func countOwned(tx *gorm.DB, owner string) (int64, error) {
	var count int64
	err := tx.Model(&schema.TokenOwnership{}).
		Where("owner_address = ?", owner).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count owned tokens: %w", err)
	}
	return count, nil
}

// platformStateTx reads the platform state inside a transaction
func platformStateTx(tx *gorm.DB) (*PlatformState, error) {
	var adminKV schema.KeyValueStore
	err := tx.Where("key = ?", kvKeyAdmin).First(&adminKV).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get platform admin: %w", err)
	}

	state := &PlatformState{AdminAddress: adminKV.Value}

	var feeKV schema.KeyValueStore
	err = tx.Where("key = ?", kvKeyFeeBps).First(&feeKV).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return state, nil
		}
		return nil, fmt.Errorf("failed to get platform fee: %w", err)
	}

	feeBps, err := strconv.ParseUint(feeKV.Value, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to parse platform fee: %w", err)
	}
	state.FeeBps = uint32(feeBps)

	return state, nil
}

// CreateCollection persists a new collection together with its lattice
// parameters in one transaction
func (s *pgStore) CreateCollection(ctx context.Context, input CreateCollectionInput) (*schema.Collection, error) {
	var collection *schema.Collection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		height, err := nextHeight(tx)
		if err != nil {
			return err
		}

		collection = &schema.Collection{
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
		}
		if err := tx.Create(collection).Error; err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		connections, err := json.Marshal(input.Parameters.Connections)
		if err != nil {
			return fmt.Errorf("failed to marshal connections: %w", err)
		}
		transformations, err := json.Marshal(input.Parameters.Transformations)
		if err != nil {
			return fmt.Errorf("failed to marshal transformations: %w", err)
		}
		extraParams, err := json.Marshal(input.Parameters.ExtraParams)
		if err != nil {
			return fmt.Errorf("failed to marshal extra params: %w", err)
		}

		params := schema.LatticeParameters{
			CollectionID:    collection.ID,
			Dimensions:      input.Parameters.Dimensions,
			NodeCount:       input.Parameters.NodeCount,
			ColorScheme:     input.Parameters.ColorScheme,
			Connections:     connections,
			Transformations: transformations,
			ExtraParams:     extraParams,
		}
		if err := tx.Create(&params).Error; err != nil {
			return fmt.Errorf("failed to create lattice parameters: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// SetCollectionStatus opens or closes minting for a collection
func (s *pgStore) SetCollectionStatus(ctx context.Context, collectionID uint64, isOpen bool, caller string) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", collectionID).
			First(&collection).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCollectionNotFound
			}
			return fmt.Errorf("failed to lock collection: %w", err)
		}

		if collection.CreatorAddress != caller {
			return domain.ErrNotAuthorized
		}

		collection.IsOpen = isOpen
		if err := tx.Model(&schema.Collection{}).
			Where("id = ?", collectionID).
			Update("is_open", isOpen).Error; err != nil {
			return fmt.Errorf("failed to update collection status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetCollection retrieves a collection by id
func (s *pgStore) GetCollection(ctx context.Context, collectionID uint64) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).Where("id = ?", collectionID).First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

// ListCollections retrieves collections ordered by id
func (s *pgStore) ListCollections(ctx context.Context, limit int, offset uint64) ([]*schema.Collection, error) {
	var collections []*schema.Collection
	err := s.db.WithContext(ctx).
		Order("id").
		Limit(limit).
		Offset(int(offset)).
		Find(&collections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

// CountCollections returns the number of registered collections
func (s *pgStore) CountCollections(ctx context.Context) (uint64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Collection{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count collections: %w", err)
	}
	return uint64(count), nil
}

// GetLatticeParameters retrieves the write-once parameters of a collection
func (s *pgStore) GetLatticeParameters(ctx context.Context, collectionID uint64) (*schema.LatticeParameters, error) {
	var params schema.LatticeParameters
	err := s.db.WithContext(ctx).Where("collection_id = ?", collectionID).First(&params).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lattice parameters: %w", err)
	}
	return &params, nil
}

// MintToken allocates the next token index and records the new token. The
// collection row lock makes index allocation linearizable: two concurrent
// mints serialize on the lock and can never receive the same index.
func (s *pgStore) MintToken(ctx context.Context, input MintTokenInput) (*schema.Token, error) {
	var token *schema.Token
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var collection schema.Collection
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.CollectionID).
			First(&collection).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCollectionNotFound
			}
			return fmt.Errorf("failed to lock collection: %w", err)
		}

		if !collection.IsOpen {
			return domain.ErrCollectionClosed
		}
		if collection.CurrentSupply >= collection.MaxSupply {
			return domain.ErrCollectionLimitReached
		}

		owned, err := countOwned(tx, input.MinterAddress)
		if err != nil {
			return err
		}
		if owned >= domain.MaxOwnedTokens {
			return domain.ErrOwnerLimitReached
		}

		if collection.MintPrice > 0 {
			accounts, err := lockAccounts(tx, input.MinterAddress, collection.CreatorAddress)
			if err != nil {
				return err
			}
			minter := accounts[input.MinterAddress]
			if minter.Balance < collection.MintPrice {
				return domain.ErrInsufficientPayment
			}
			if input.MinterAddress != collection.CreatorAddress {
				minter.Balance -= collection.MintPrice
				accounts[collection.CreatorAddress].Balance += collection.MintPrice
				for _, account := range accounts {
					if err := tx.Save(account).Error; err != nil {
						return fmt.Errorf("failed to save account: %w", err)
					}
				}
			}
		}

		height, err := nextHeight(tx)
		if err != nil {
			return err
		}

		tokenIndex := collection.CurrentSupply + 1
		if err := tx.Model(&schema.Collection{}).
			Where("id = ?", collection.ID).
			Update("current_supply", tokenIndex).Error; err != nil {
			return fmt.Errorf("failed to update current supply: %w", err)
		}

		tokenID := domain.TokenID{CollectionID: collection.ID, TokenIndex: tokenIndex}
		token = &schema.Token{
			CollectionID:    collection.ID,
			TokenIndex:      tokenIndex,
			OwnerAddress:    input.MinterAddress,
			Seed:            input.Seed,
			MintedAtHeight:  height,
			MetadataLocator: tokenID.MetadataLocator(collection.MetadataLocator),
		}
		if err := tx.Create(token).Error; err != nil {
			return fmt.Errorf("failed to create token: %w", err)
		}

		ownership := schema.TokenOwnership{
			OwnerAddress:     input.MinterAddress,
			CollectionID:     collection.ID,
			TokenIndex:       tokenIndex,
			AcquiredAtHeight: height,
		}
		if err := tx.Create(&ownership).Error; err != nil {
			return fmt.Errorf("failed to create ownership entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// transferTokenTx moves ownership and deletes any listing for the token.
// Shared by the direct transfer path and sale settlement.
func transferTokenTx(tx *gorm.DB, token *schema.Token, to string, height uint64) error {
	if err := tx.Where("collection_id = ? AND token_index = ?", token.CollectionID, token.TokenIndex).
		Delete(&schema.Listing{}).Error; err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	from := token.OwnerAddress
	token.OwnerAddress = to
	if err := tx.Model(&schema.Token{}).
		Where("collection_id = ? AND token_index = ?", token.CollectionID, token.TokenIndex).
		Update("owner_address", to).Error; err != nil {
		return fmt.Errorf("failed to update token owner: %w", err)
	}

	if err := tx.Where("owner_address = ? AND collection_id = ? AND token_index = ?",
		from, token.CollectionID, token.TokenIndex).
		Delete(&schema.TokenOwnership{}).Error; err != nil {
		return fmt.Errorf("failed to remove ownership entry: %w", err)
	}

	ownership := schema.TokenOwnership{
		OwnerAddress:     to,
		CollectionID:     token.CollectionID,
		TokenIndex:       token.TokenIndex,
		AcquiredAtHeight: height,
	}
	if err := tx.Create(&ownership).Error; err != nil {
		return fmt.Errorf("failed to create ownership entry: %w", err)
	}

	return nil
}

// TransferToken moves ownership from `from` to `to`
func (s *pgStore) TransferToken(ctx context.Context, tokenID domain.TokenID, from, to string) (*TransferResult, error) {
	var token schema.Token
	var transferHeight uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND token_index = ?", tokenID.CollectionID, tokenID.TokenIndex).
			First(&token).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNftNotFound
			}
			return fmt.Errorf("failed to lock token: %w", err)
		}

		if token.OwnerAddress != from {
			return domain.ErrNotOwner
		}
		if from == to {
			// No state change; report the current height
			height, err := currentHeight(tx)
			if err != nil {
				return err
			}
			transferHeight = height
			return nil
		}

		owned, err := countOwned(tx, to)
		if err != nil {
			return err
		}
		if owned >= domain.MaxOwnedTokens {
			return domain.ErrOwnerLimitReached
		}

		height, err := nextHeight(tx)
		if err != nil {
			return err
		}
		transferHeight = height

		return transferTokenTx(tx, &token, to, height)
	})
	if err != nil {
		return nil, err
	}
	return &TransferResult{Token: &token, Height: transferHeight}, nil
}

// GetToken retrieves a token by its identity
func (s *pgStore) GetToken(ctx context.Context, tokenID domain.TokenID) (*schema.Token, error) {
	var token schema.Token
	err := s.db.WithContext(ctx).
		Where("collection_id = ? AND token_index = ?", tokenID.CollectionID, tokenID.TokenIndex).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// GetOwnedTokens retrieves an account's tokens in acquisition order
func (s *pgStore) GetOwnedTokens(ctx context.Context, owner string, limit int, offset uint64) ([]*schema.Token, error) {
	var tokens []*schema.Token
	err := s.db.WithContext(ctx).
		Joins("JOIN token_ownerships ON token_ownerships.collection_id = tokens.collection_id AND token_ownerships.token_index = tokens.token_index").
		Where("token_ownerships.owner_address = ?", owner).
		Order("token_ownerships.acquired_at_height, tokens.collection_id, tokens.token_index").
		Limit(limit).
		Offset(int(offset)).
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get owned tokens: %w", err)
	}
	return tokens, nil
}

// CreateListing creates a fixed-price listing for a token
func (s *pgStore) CreateListing(ctx context.Context, input CreateListingInput) (*schema.Listing, error) {
	var listing *schema.Listing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var token schema.Token
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND token_index = ?", input.CollectionID, input.TokenIndex).
			First(&token).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNftNotFound
			}
			return fmt.Errorf("failed to lock token: %w", err)
		}

		if token.OwnerAddress != input.SellerAddress {
			return domain.ErrNotOwner
		}

		var existing schema.Listing
		err = tx.Where("collection_id = ? AND token_index = ?", input.CollectionID, input.TokenIndex).
			First(&existing).Error
		if err == nil {
			return domain.ErrListingExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing listing: %w", err)
		}

		height, err := nextHeight(tx)
		if err != nil {
			return err
		}

		listing = &schema.Listing{
			CollectionID:   input.CollectionID,
			TokenIndex:     input.TokenIndex,
			SellerAddress:  input.SellerAddress,
			Price:          input.Price,
			ListedAtHeight: height,
		}
		if err := tx.Create(listing).Error; err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// DeleteListing cancels a listing; only its seller may do so
func (s *pgStore) DeleteListing(ctx context.Context, tokenID domain.TokenID, caller string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing schema.Listing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND token_index = ?", tokenID.CollectionID, tokenID.TokenIndex).
			First(&listing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrListingNotFound
			}
			return fmt.Errorf("failed to lock listing: %w", err)
		}

		if listing.SellerAddress != caller {
			return domain.ErrNotAuthorized
		}

		if err := tx.Where("collection_id = ? AND token_index = ?", tokenID.CollectionID, tokenID.TokenIndex).
			Delete(&schema.Listing{}).Error; err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}
		return nil
	})
}

// GetListing retrieves the listing for a token
func (s *pgStore) GetListing(ctx context.Context, tokenID domain.TokenID) (*schema.Listing, error) {
	var listing schema.Listing
	err := s.db.WithContext(ctx).
		Where("collection_id = ? AND token_index = ?", tokenID.CollectionID, tokenID.TokenIndex).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// BuyToken settles a sale. Payment split and ownership transfer happen in
// one transaction: there is no state where money has moved but the token
// has not, or the reverse.
func (s *pgStore) BuyToken(ctx context.Context, input BuyTokenInput) (*SaleResult, error) {
	var result *SaleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing schema.Listing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND token_index = ?", input.CollectionID, input.TokenIndex).
			First(&listing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrListingNotFound
			}
			return fmt.Errorf("failed to lock listing: %w", err)
		}

		if listing.SellerAddress == input.BuyerAddress {
			return domain.ErrNotAuthorized
		}

		var collection schema.Collection
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.CollectionID).
			First(&collection).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCollectionNotFound
			}
			return fmt.Errorf("failed to lock collection: %w", err)
		}

		var token schema.Token
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND token_index = ?", input.CollectionID, input.TokenIndex).
			First(&token).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNftNotFound
			}
			return fmt.Errorf("failed to lock token: %w", err)
		}

		// A listing only exists while the seller owns the token
		if token.OwnerAddress != listing.SellerAddress {
			return domain.ErrListingNotFound
		}

		owned, err := countOwned(tx, input.BuyerAddress)
		if err != nil {
			return err
		}
		if owned >= domain.MaxOwnedTokens {
			return domain.ErrOwnerLimitReached
		}

		state, err := platformStateTx(tx)
		if err != nil {
			return err
		}
		if state == nil {
			return fmt.Errorf("platform state not seeded")
		}

		settlement := fees.Split(listing.Price, state.FeeBps, collection.RoyaltyBps)

		accounts, err := lockAccounts(tx,
			input.BuyerAddress, listing.SellerAddress, collection.CreatorAddress, state.AdminAddress)
		if err != nil {
			return err
		}
		buyer := accounts[input.BuyerAddress]
		if buyer.Balance < listing.Price {
			return domain.ErrInsufficientPayment
		}
		buyer.Balance -= listing.Price
		accounts[state.AdminAddress].Balance += settlement.PlatformFee
		accounts[collection.CreatorAddress].Balance += settlement.Royalty
		accounts[listing.SellerAddress].Balance += settlement.SellerAmount
		for _, account := range accounts {
			if err := tx.Save(account).Error; err != nil {
				return fmt.Errorf("failed to save account: %w", err)
			}
		}

		height, err := nextHeight(tx)
		if err != nil {
			return err
		}

		if err := transferTokenTx(tx, &token, input.BuyerAddress, height); err != nil {
			return err
		}

		result = &SaleResult{
			Token:      &token,
			Seller:     listing.SellerAddress,
			Buyer:      input.BuyerAddress,
			Price:      listing.Price,
			Settlement: settlement,
			Height:     height,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Deposit credits an account and returns the new balance
func (s *pgStore) Deposit(ctx context.Context, address string, amount uint64) (uint64, error) {
	var balance uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, err := lockAccounts(tx, address)
		if err != nil {
			return err
		}
		account := accounts[address]
		account.Balance += amount
		if err := tx.Save(account).Error; err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// GetBalance returns an account's balance; unknown accounts hold zero
func (s *pgStore) GetBalance(ctx context.Context, address string) (uint64, error) {
	var account schema.Account
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	return account.Balance, nil
}

// GetPlatformState retrieves the admin account and fee rate
func (s *pgStore) GetPlatformState(ctx context.Context) (*PlatformState, error) {
	return platformStateTx(s.db.WithContext(ctx))
}

// SetPlatformFeeBps updates the platform fee rate
func (s *pgStore) SetPlatformFeeBps(ctx context.Context, newFeeBps uint32, caller string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adminKV schema.KeyValueStore
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", kvKeyAdmin).
			First(&adminKV).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotAuthorized
			}
			return fmt.Errorf("failed to lock platform admin: %w", err)
		}
		if adminKV.Value != caller {
			return domain.ErrNotAuthorized
		}

		feeKV := schema.KeyValueStore{
			Key:   kvKeyFeeBps,
			Value: strconv.FormatUint(uint64(newFeeBps), 10),
		}
		if err := tx.Save(&feeKV).Error; err != nil {
			return fmt.Errorf("failed to save platform fee: %w", err)
		}
		return nil
	})
}

// SetAdmin hands platform administration to a new account
func (s *pgStore) SetAdmin(ctx context.Context, newAdmin string, caller string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adminKV schema.KeyValueStore
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", kvKeyAdmin).
			First(&adminKV).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotAuthorized
			}
			return fmt.Errorf("failed to lock platform admin: %w", err)
		}
		if adminKV.Value != caller {
			return domain.ErrNotAuthorized
		}

		adminKV.Value = newAdmin
		if err := tx.Save(&adminKV).Error; err != nil {
			return fmt.Errorf("failed to save platform admin: %w", err)
		}
		return nil
	})
}

// SeedPlatformState installs the deployer as first admin if none is set
func (s *pgStore) SeedPlatformState(ctx context.Context, admin string, feeBps uint32) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adminKV schema.KeyValueStore
		err := tx.Where("key = ?", kvKeyAdmin).First(&adminKV).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check platform admin: %w", err)
		}

		if err := tx.Create(&schema.KeyValueStore{Key: kvKeyAdmin, Value: admin}).Error; err != nil {
			return fmt.Errorf("failed to seed platform admin: %w", err)
		}
		if err := tx.Create(&schema.KeyValueStore{
			Key:   kvKeyFeeBps,
			Value: strconv.FormatUint(uint64(feeBps), 10),
		}).Error; err != nil {
			return fmt.Errorf("failed to seed platform fee: %w", err)
		}
		return nil
	})
}
