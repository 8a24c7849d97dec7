package fees

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBpsShares(t *testing.T) {
	assert.Equal(t, uint64(25), PlatformFee(1000, 250))
	assert.Equal(t, uint64(50), Royalty(1000, 500))

	// Flooring
	assert.Equal(t, uint64(0), PlatformFee(39, 250))
	assert.Equal(t, uint64(2), Royalty(41, 500))

	// Zero rate, zero amount
	assert.Equal(t, uint64(0), PlatformFee(1000, 0))
	assert.Equal(t, uint64(0), Royalty(0, 3000))

	// No overflow near the top of the range
	assert.Equal(t, uint64(math.MaxUint64/4), PlatformFee(math.MaxUint64, 2500))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		price      uint64
		feeBps     uint32
		royaltyBps uint32
		want       Settlement
	}{
		{"reference sale", 1000, 250, 500, Settlement{PlatformFee: 25, Royalty: 50, SellerAmount: 925}},
		{"no royalty", 1000, 250, 0, Settlement{PlatformFee: 25, Royalty: 0, SellerAmount: 975}},
		{"no fee no royalty", 777, 0, 0, Settlement{PlatformFee: 0, Royalty: 0, SellerAmount: 777}},
		{"odd price floors both legs", 999, 250, 500, Settlement{PlatformFee: 24, Royalty: 49, SellerAmount: 926}},
		{"one unit price", 1, 1000, 3000, Settlement{PlatformFee: 0, Royalty: 0, SellerAmount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.price, tt.feeBps, tt.royaltyBps)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.price, got.PlatformFee+got.Royalty+got.SellerAmount,
				"legs must sum exactly to the price")
		})
	}
}
