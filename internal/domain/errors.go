package domain

import "errors"

var (
	// ErrNotAuthorized is returned when the caller is not allowed to perform the operation
	ErrNotAuthorized = errors.New("not authorized")

	// ErrCollectionNotFound is returned when a collection does not exist
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionClosed is returned when minting against a closed collection
	ErrCollectionClosed = errors.New("collection closed")

	// ErrCollectionLimitReached is returned when a collection has minted its full supply
	ErrCollectionLimitReached = errors.New("collection limit reached")

	// ErrInvalidParameters is returned when operation inputs fail validation
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInvalidRoyalty is returned when a royalty rate exceeds the allowed maximum
	ErrInvalidRoyalty = errors.New("invalid royalty")

	// ErrInsufficientPayment is returned when the payer's balance does not cover the amount due
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrNftNotFound is returned when a token does not exist
	ErrNftNotFound = errors.New("nft not found")

	// ErrNotOwner is returned when the caller does not own the token
	ErrNotOwner = errors.New("not owner")

	// ErrListingExists is returned when listing a token that is already listed
	ErrListingExists = errors.New("listing exists")

	// ErrListingNotFound is returned when no listing exists for a token
	ErrListingNotFound = errors.New("listing not found")

	// ErrOwnerLimitReached is returned when an account would exceed its owned-token cap
	ErrOwnerLimitReached = errors.New("owner limit reached")
)
