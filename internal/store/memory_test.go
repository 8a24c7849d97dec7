package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/lattice-ledger/internal/domain"
)

// TestMemoryStore runs all store tests against the in-memory implementation
func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

// TestOwnerLimit fills an account to the ownership cap and verifies every
// path that grows holdings rejects the next token
func TestOwnerLimit(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})

	collection, err := s.CreateCollection(ctx, buildTestCollection(domain.MaxOwnedTokens+2, 0, 0))
	require.NoError(t, err)

	for i := 0; i < domain.MaxOwnedTokens; i++ {
		_, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: fmt.Sprintf("seed-%d", i), MinterAddress: addrAlice})
		require.NoError(t, err)
	}

	// Minting past the cap
	_, err = s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "one-over", MinterAddress: addrAlice})
	assert.ErrorIs(t, err, domain.ErrOwnerLimitReached)

	// Receiving a transfer past the cap
	token, err := s.MintToken(ctx, MintTokenInput{CollectionID: collection.ID, Seed: "bob", MinterAddress: addrBob})
	require.NoError(t, err)
	id := domain.TokenID{CollectionID: token.CollectionID, TokenIndex: token.TokenIndex}
	_, err = s.TransferToken(ctx, id, addrBob, addrAlice)
	assert.ErrorIs(t, err, domain.ErrOwnerLimitReached)

	// Buying past the cap
	_, err = s.CreateListing(ctx, CreateListingInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, SellerAddress: addrBob, Price: 500})
	require.NoError(t, err)
	_, err = s.BuyToken(ctx, BuyTokenInput{CollectionID: id.CollectionID, TokenIndex: id.TokenIndex, BuyerAddress: addrAlice})
	assert.ErrorIs(t, err, domain.ErrOwnerLimitReached)

	// The failed buy left the listing and ownership intact
	listing, err := s.GetListing(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, listing)
	current, err := s.GetToken(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, addrBob, current.OwnerAddress)

	aliceTokens, err := s.GetOwnedTokens(ctx, addrAlice, domain.MaxOwnedTokens+10, 0)
	require.NoError(t, err)
	assert.Len(t, aliceTokens, domain.MaxOwnedTokens)
}
