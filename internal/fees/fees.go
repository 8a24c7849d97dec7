// Package fees implements the settlement arithmetic for marketplace sales:
// platform fee and creator royalty in basis points, with seller proceeds
// derived by subtraction so the three legs always sum exactly to the price.
package fees

import (
	"math/bits"

	"github.com/feral-file/lattice-ledger/internal/domain"
)

// Settlement is the three-way split of a sale price
type Settlement struct {
	PlatformFee  uint64 `json:"platform_fee"`
	Royalty      uint64 `json:"royalty"`
	SellerAmount uint64 `json:"seller_amount"`
}

// bpsShare computes floor(amount * rateBps / 10000) without overflowing
// uint64 for any amount
func bpsShare(amount uint64, rateBps uint32) uint64 {
	hi, lo := bits.Mul64(amount, uint64(rateBps))
	q, _ := bits.Div64(hi, lo, domain.BpsDenominator)
	return q
}

// PlatformFee computes the platform's cut of a sale
func PlatformFee(amount uint64, feeBps uint32) uint64 {
	return bpsShare(amount, feeBps)
}

// Royalty computes the collection creator's cut of a sale
func Royalty(amount uint64, royaltyBps uint32) uint64 {
	return bpsShare(amount, royaltyBps)
}

// Split computes the settlement for a sale. The seller amount is never
// computed independently: it is the price minus the other two legs, so
// rounding can never make the parts drift from the whole.
func Split(price uint64, feeBps, royaltyBps uint32) Settlement {
	fee := PlatformFee(price, feeBps)
	roy := Royalty(price, royaltyBps)
	return Settlement{
		PlatformFee:  fee,
		Royalty:      roy,
		SellerAmount: price - fee - roy,
	}
}
