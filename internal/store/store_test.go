package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/lattice-ledger/internal/domain"
)

const (
	addrAdmin   = "acct:admin"
	addrCreator = "acct:creator"
	addrAlice   = "acct:alice"
	addrBob     = "acct:bob"
)

// buildTestCollection creates a collection creation input
func buildTestCollection(maxSupply uint64, mintPrice uint64, royaltyBps uint32) CreateCollectionInput {
	params := domain.LatticeParameters{
		Dimensions:  2,
		NodeCount:   4,
		Connections: []domain.Connection{{From: 0, To: 1, Weight: 1}, {From: 1, To: 3, Weight: 0.25}},
		ColorScheme: "viridis",
	}
	hash, _ := params.CanonicalHash()
	return CreateCollectionInput{
		CreatorAddress:  addrCreator,
		Name:            "test lattice",
		Description:     "test collection",
		MaxSupply:       maxSupply,
		MintPrice:       mintPrice,
		RoyaltyBps:      royaltyBps,
		MetadataLocator: "ipfs://Qmtest",
		ParamsHash:      hash,
		Parameters:      params,
	}
}

// newSeededStore creates a store with platform state seeded and funded accounts
func newSeededStore(t *testing.T, factory func(t *testing.T) Store) Store {
	t.Helper()
	s := factory(t)
	ctx := context.Background()
	require.NoError(t, s.SeedPlatformState(ctx, addrAdmin, 250))
	for _, addr := range []string{addrAlice, addrBob} {
		_, err := s.Deposit(ctx, addr, 10_000)
		require.NoError(t, err)
	}
	return s
}

// runStoreSuite exercises the Store contract against any implementation
func runStoreSuite(t *testing.T, factory func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create collection persists collection and parameters", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 100, 500))
		require.NoError(t, err)
		require.NotNil(t, collection)
		assert.NotZero(t, collection.ID)
		assert.Equal(t, uint64(0), collection.CurrentSupply)
		assert.True(t, collection.IsOpen)
		assert.NotZero(t, collection.CreatedAtHeight)
		assert.NotEmpty(t, collection.ParamsHash)

		params, err := s.GetLatticeParameters(ctx, collection.ID)
		require.NoError(t, err)
		require.NotNil(t, params)
		assert.Equal(t, collection.ID, params.CollectionID)
		assert.Equal(t, uint32(4), params.NodeCount)

		count, err := s.CountCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)
	})

	t.Run("collection ids are sequential", func(t *testing.T) {
		s := newSeededStore(t, factory)

		first, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 0))
		require.NoError(t, err)
		second, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 0))
		require.NoError(t, err)
		assert.Equal(t, first.ID+1, second.ID)

		listed, err := s.ListCollections(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, first.ID, listed[0].ID)
	})

	t.Run("get absent records returns nil without error", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.GetCollection(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, collection)

		token, err := s.GetToken(ctx, domain.TokenID{CollectionID: 999, TokenIndex: 1})
		require.NoError(t, err)
		assert.Nil(t, token)

		listing, err := s.GetListing(ctx, domain.TokenID{CollectionID: 999, TokenIndex: 1})
		require.NoError(t, err)
		assert.Nil(t, listing)
	})

	t.Run("set collection status enforces creator", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 0))
		require.NoError(t, err)

		_, err = s.SetCollectionStatus(ctx, collection.ID, false, addrAlice)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		_, err = s.SetCollectionStatus(ctx, 999, false, addrCreator)
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

		updated, err := s.SetCollectionStatus(ctx, collection.ID, false, addrCreator)
		require.NoError(t, err)
		assert.False(t, updated.IsOpen)
	})

	t.Run("mint allocates sequential indexes and pays the creator", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(3, 100, 500))
		require.NoError(t, err)

		token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "seed-1", MinterAddress: addrAlice})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), token.TokenIndex)
		assert.Equal(t, addrAlice, token.OwnerAddress)
		assert.Equal(t, "ipfs://Qmtest/1", token.MetadataLocator)
		assert.NotZero(t, token.MintedAtHeight)

		second, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "seed-2", MinterAddress: addrAlice})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), second.TokenIndex)
		assert.Greater(t, second.MintedAtHeight, token.MintedAtHeight)

		aliceBalance, err := s.GetBalance(ctx, addrAlice)
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000-200), aliceBalance)

		creatorBalance, err := s.GetBalance(ctx, addrCreator)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), creatorBalance)

		updated, err := s.GetCollection(ctx, collection.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), updated.CurrentSupply)
	})

	t.Run("mint preconditions", func(t *testing.T) {
		s := newSeededStore(t, factory)

		_, err := s.MintToken(ctx, MintTokenInput{CollectionID: 999, Seed: "s", MinterAddress: addrAlice})
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

		collection, err := s.CreateCollection(ctx, buildTestCollection(1, 50_000, 0))
		require.NoError(t, err)

		_, err = s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		assert.ErrorIs(t, err, domain.ErrInsufficientPayment)

		_, err = s.SetCollectionStatus(ctx, collection.ID, false, addrCreator)
		require.NoError(t, err)
		_, err = s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		assert.ErrorIs(t, err, domain.ErrCollectionClosed)

		// No partial effects from the rejected mints
		updated, err := s.GetCollection(ctx, collection.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), updated.CurrentSupply)
		balance, err := s.GetBalance(ctx, addrAlice)
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000), balance)
	})

	t.Run("supply cap is exact", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(3, 0, 500))
		require.NoError(t, err)

		for i := 1; i <= 3; i++ {
			token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: fmt.Sprintf("seed-%d", i), MinterAddress: addrAlice})
			require.NoError(t, err)
			assert.Equal(t, uint64(i), token.TokenIndex)
		}

		_, err = s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "seed-4", MinterAddress: addrAlice})
		assert.ErrorIs(t, err, domain.ErrCollectionLimitReached)
	})

	t.Run("transfer moves token and ownership index atomically", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 0))
		require.NoError(t, err)
		token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		require.NoError(t, err)
		id := domain.TokenID{CollectionID: token.CollectionID, TokenIndex: token.TokenIndex}

		_, err = s.TransferToken(ctx, id, addrBob, addrAlice)
		assert.ErrorIs(t, err, domain.ErrNotOwner)

		_, err = s.TransferToken(ctx, domain.TokenID{CollectionID: 999, TokenIndex: 1}, addrAlice, addrBob)
		assert.ErrorIs(t, err, domain.ErrNftNotFound)

		moved, err := s.TransferToken(ctx, id, addrAlice, addrBob)
		require.NoError(t, err)
		assert.Equal(t, addrBob, moved.Token.OwnerAddress)
		assert.Greater(t, moved.Height, token.MintedAtHeight)

		aliceTokens, err := s.GetOwnedTokens(ctx, addrAlice, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, aliceTokens)

		bobTokens, err := s.GetOwnedTokens(ctx, addrBob, 10, 0)
		require.NoError(t, err)
		require.Len(t, bobTokens, 1)
		assert.Equal(t, token.TokenIndex, bobTokens[0].TokenIndex)
	})

	t.Run("transfer deletes an open listing", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 0))
		require.NoError(t, err)
		token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		require.NoError(t, err)
		id := domain.TokenID{CollectionID: token.CollectionID, TokenIndex: token.TokenIndex}

		_, err = s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrAlice, Price: 500})
		require.NoError(t, err)

		_, err = s.TransferToken(ctx, id, addrAlice, addrBob)
		require.NoError(t, err)

		listing, err := s.GetListing(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, listing)
	})

	t.Run("self-transfer is a no-op at the current height", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 0))
		require.NoError(t, err)
		token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		require.NoError(t, err)
		id := domain.TokenID{CollectionID: token.CollectionID, TokenIndex: token.TokenIndex}

		listing, err := s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrAlice, Price: 500})
		require.NoError(t, err)

		moved, err := s.TransferToken(ctx, id, addrAlice, addrAlice)
		require.NoError(t, err)
		assert.Equal(t, addrAlice, moved.Token.OwnerAddress)
		// The height does not advance and the reported height is the current one
		assert.Equal(t, listing.ListedAtHeight, moved.Height)

		// The listing survives a self-transfer
		kept, err := s.GetListing(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, kept)
		assert.Equal(t, uint64(500), kept.Price)

		aliceTokens, err := s.GetOwnedTokens(ctx, addrAlice, 10, 0)
		require.NoError(t, err)
		assert.Len(t, aliceTokens, 1)
	})

	t.Run("listing lifecycle", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 0))
		require.NoError(t, err)
		token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		require.NoError(t, err)
		id := domain.TokenID{CollectionID: token.CollectionID, TokenIndex: token.TokenIndex}

		_, err = s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrBob, Price: 500})
		assert.ErrorIs(t, err, domain.ErrNotOwner)

		listing, err := s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrAlice, Price: 500})
		require.NoError(t, err)
		assert.Equal(t, uint64(500), listing.Price)
		assert.NotZero(t, listing.ListedAtHeight)

		_, err = s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrAlice, Price: 600})
		assert.ErrorIs(t, err, domain.ErrListingExists)

		err = s.DeleteListing(ctx, id, addrBob)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		require.NoError(t, s.DeleteListing(ctx, id, addrAlice))

		// Cancel is not idempotent
		err = s.DeleteListing(ctx, id, addrAlice)
		assert.ErrorIs(t, err, domain.ErrListingNotFound)

		// List again after cancel succeeds
		_, err = s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrAlice, Price: 700})
		require.NoError(t, err)
	})

	t.Run("buy settles the exact three-way split", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 500))
		require.NoError(t, err)
		token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		require.NoError(t, err)
		id := domain.TokenID{CollectionID: token.CollectionID, TokenIndex: token.TokenIndex}

		_, err = s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrAlice, Price: 1000})
		require.NoError(t, err)

		result, err := s.BuyToken(ctx, BuyTokenInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, BuyerAddress: addrBob})
		require.NoError(t, err)
		assert.Equal(t, uint64(25), result.Settlement.PlatformFee)
		assert.Equal(t, uint64(50), result.Settlement.Royalty)
		assert.Equal(t, uint64(925), result.Settlement.SellerAmount)
		assert.Equal(t, result.Price, result.Settlement.PlatformFee+result.Settlement.Royalty+result.Settlement.SellerAmount)
		assert.Equal(t, addrBob, result.Token.OwnerAddress)

		listing, err := s.GetListing(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, listing)

		adminBalance, err := s.GetBalance(ctx, addrAdmin)
		require.NoError(t, err)
		assert.Equal(t, uint64(25), adminBalance)
		creatorBalance, err := s.GetBalance(ctx, addrCreator)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), creatorBalance)
		aliceBalance, err := s.GetBalance(ctx, addrAlice)
		require.NoError(t, err)
		assert.Equal(t, uint64(10_925), aliceBalance)
		bobBalance, err := s.GetBalance(ctx, addrBob)
		require.NoError(t, err)
		assert.Equal(t, uint64(9_000), bobBalance)
	})

	t.Run("buy preconditions", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 500))
		require.NoError(t, err)
		token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		require.NoError(t, err)
		id := domain.TokenID{CollectionID: token.CollectionID, TokenIndex: token.TokenIndex}

		_, err = s.BuyToken(ctx, BuyTokenInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, BuyerAddress: addrBob})
		assert.ErrorIs(t, err, domain.ErrListingNotFound)

		_, err = s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrAlice, Price: 100_000})
		require.NoError(t, err)

		// Sellers cannot buy their own listing
		_, err = s.BuyToken(ctx, BuyTokenInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, BuyerAddress: addrAlice})
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		_, err = s.BuyToken(ctx, BuyTokenInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, BuyerAddress: addrBob})
		assert.ErrorIs(t, err, domain.ErrInsufficientPayment)

		// Failed buy left everything in place
		listing, err := s.GetListing(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, listing)
		current, err := s.GetToken(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, addrAlice, current.OwnerAddress)
	})

	t.Run("platform state administration", func(t *testing.T) {
		s := newSeededStore(t, factory)

		state, err := s.GetPlatformState(ctx)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, addrAdmin, state.AdminAddress)
		assert.Equal(t, uint32(250), state.FeeBps)

		// Seeding again is a no-op
		require.NoError(t, s.SeedPlatformState(ctx, addrAlice, 999))
		state, err = s.GetPlatformState(ctx)
		require.NoError(t, err)
		assert.Equal(t, addrAdmin, state.AdminAddress)

		err = s.SetPlatformFeeBps(ctx, 300, addrAlice)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		require.NoError(t, s.SetPlatformFeeBps(ctx, 300, addrAdmin))
		state, err = s.GetPlatformState(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(300), state.FeeBps)

		err = s.SetAdmin(ctx, addrBob, addrAlice)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		require.NoError(t, s.SetAdmin(ctx, addrBob, addrAdmin))
		require.NoError(t, s.SetPlatformFeeBps(ctx, 100, addrBob))
		err = s.SetPlatformFeeBps(ctx, 100, addrAdmin)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("exactly one ownership entry per token", func(t *testing.T) {
		s := newSeededStore(t, factory)

		collection, err := s.CreateCollection(ctx, buildTestCollection(10, 0, 0))
		require.NoError(t, err)
		token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "s", MinterAddress: addrAlice})
		require.NoError(t, err)
		id := domain.TokenID{CollectionID: token.CollectionID, TokenIndex: token.TokenIndex}

		// Bounce the token back and forth; the index must stay consistent
		for i := 0; i < 3; i++ {
			_, err = s.TransferToken(ctx, id, addrAlice, addrBob)
			require.NoError(t, err)
			_, err = s.TransferToken(ctx, id, addrBob, addrAlice)
			require.NoError(t, err)
		}

		aliceTokens, err := s.GetOwnedTokens(ctx, addrAlice, 10, 0)
		require.NoError(t, err)
		require.Len(t, aliceTokens, 1)
		bobTokens, err := s.GetOwnedTokens(ctx, addrBob, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, bobTokens)

		current, err := s.GetToken(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, addrAlice, current.OwnerAddress)
	})
}
