package dto

import (
	"encoding/json"
	"time"

	"github.com/feral-file/lattice-ledger/internal/store"
	"github.com/feral-file/lattice-ledger/internal/store/schema"
)

// CollectionResponse is the wire form of a collection
type CollectionResponse struct {
	ID              uint64    `json:"id"`
	CreatorAddress  string    `json:"creator_address"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	MaxSupply       uint64    `json:"max_supply"`
	CurrentSupply   uint64    `json:"current_supply"`
	MintPrice       uint64    `json:"mint_price"`
	RoyaltyBps      uint32    `json:"royalty_bps"`
	IsOpen          bool      `json:"is_open"`
	CreatedAtHeight uint64    `json:"created_at_height"`
	MetadataLocator string    `json:"metadata_locator"`
	ParamsHash      string    `json:"params_hash"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCollectionResponse maps a collection row to its wire form
func NewCollectionResponse(c *schema.Collection) *CollectionResponse {
	return &CollectionResponse{
		ID:              c.ID,
		CreatorAddress:  c.CreatorAddress,
		Name:            c.Name,
		Description:     c.Description,
		MaxSupply:       c.MaxSupply,
		CurrentSupply:   c.CurrentSupply,
		MintPrice:       c.MintPrice,
		RoyaltyBps:      c.RoyaltyBps,
		IsOpen:          c.IsOpen,
		CreatedAtHeight: c.CreatedAtHeight,
		MetadataLocator: c.MetadataLocator,
		ParamsHash:      c.ParamsHash,
		CreatedAt:       c.CreatedAt,
	}
}

// CollectionListResponse is the paginated wire form of a collection list
type CollectionListResponse struct {
	Collections []*CollectionResponse `json:"collections"`
	Limit       int                   `json:"limit"`
	Offset      uint64                `json:"offset"`
}

// ParametersResponse is the wire form of a collection's lattice parameters
type ParametersResponse struct {
	CollectionID    uint64              `json:"collection_id"`
	Dimensions      uint32              `json:"dimensions"`
	NodeCount       uint32              `json:"node_count"`
	ColorScheme     string              `json:"color_scheme"`
	Connections     []ConnectionPayload `json:"connections"`
	Transformations []string            `json:"transformations"`
	ExtraParams     map[string]string   `json:"extra_params,omitempty"`
	ParamsHash      string              `json:"params_hash,omitempty"`
}

// NewParametersResponse maps a parameters row to its wire form. The JSONB
// columns are decoded back into structured payloads.
func NewParametersResponse(p *schema.LatticeParameters, paramsHash string) (*ParametersResponse, error) {
	resp := &ParametersResponse{
		CollectionID: p.CollectionID,
		Dimensions:   p.Dimensions,
		NodeCount:    p.NodeCount,
		ColorScheme:  p.ColorScheme,
		ParamsHash:   paramsHash,
	}
	if len(p.Connections) > 0 {
		if err := json.Unmarshal(p.Connections, &resp.Connections); err != nil {
			return nil, err
		}
	}
	if len(p.Transformations) > 0 {
		if err := json.Unmarshal(p.Transformations, &resp.Transformations); err != nil {
			return nil, err
		}
	}
	if len(p.ExtraParams) > 0 {
		if err := json.Unmarshal(p.ExtraParams, &resp.ExtraParams); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// TokenResponse is the wire form of a token
type TokenResponse struct {
	CollectionID    uint64    `json:"collection_id"`
	TokenIndex      uint64    `json:"token_index"`
	OwnerAddress    string    `json:"owner_address"`
	Seed            string    `json:"seed"`
	MintedAtHeight  uint64    `json:"minted_at_height"`
	MetadataLocator string    `json:"metadata_locator"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewTokenResponse maps a token row to its wire form
func NewTokenResponse(t *schema.Token) *TokenResponse {
	return &TokenResponse{
		CollectionID:    t.CollectionID,
		TokenIndex:      t.TokenIndex,
		OwnerAddress:    t.OwnerAddress,
		Seed:            t.Seed,
		MintedAtHeight:  t.MintedAtHeight,
		MetadataLocator: t.MetadataLocator,
		CreatedAt:       t.CreatedAt,
	}
}

// TokenListResponse is the paginated wire form of a token list
type TokenListResponse struct {
	Tokens []*TokenResponse `json:"tokens"`
	Limit  int              `json:"limit"`
	Offset uint64           `json:"offset"`
}

// ListingResponse is the wire form of a listing
type ListingResponse struct {
	CollectionID   uint64 `json:"collection_id"`
	TokenIndex     uint64 `json:"token_index"`
	SellerAddress  string `json:"seller_address"`
	Price          uint64 `json:"price"`
	ListedAtHeight uint64 `json:"listed_at_height"`
}

// NewListingResponse maps a listing row to its wire form
func NewListingResponse(l *schema.Listing) *ListingResponse {
	return &ListingResponse{
		CollectionID:   l.CollectionID,
		TokenIndex:     l.TokenIndex,
		SellerAddress:  l.SellerAddress,
		Price:          l.Price,
		ListedAtHeight: l.ListedAtHeight,
	}
}

// SaleResponse is the wire form of a settled sale
type SaleResponse struct {
	Token        *TokenResponse `json:"token"`
	Seller       string         `json:"seller"`
	Buyer        string         `json:"buyer"`
	Price        uint64         `json:"price"`
	PlatformFee  uint64         `json:"platform_fee"`
	Royalty      uint64         `json:"royalty"`
	SellerAmount uint64         `json:"seller_amount"`
	Height       uint64         `json:"height"`
}

// NewSaleResponse maps a sale result to its wire form
func NewSaleResponse(r *store.SaleResult) *SaleResponse {
	return &SaleResponse{
		Token:        NewTokenResponse(r.Token),
		Seller:       r.Seller,
		Buyer:        r.Buyer,
		Price:        r.Price,
		PlatformFee:  r.Settlement.PlatformFee,
		Royalty:      r.Settlement.Royalty,
		SellerAmount: r.Settlement.SellerAmount,
		Height:       r.Height,
	}
}

// OwnerResponse is the wire form of a token ownership lookup
type OwnerResponse struct {
	CollectionID uint64 `json:"collection_id"`
	TokenIndex   uint64 `json:"token_index"`
	OwnerAddress string `json:"owner_address"`
}

// BalanceResponse is the wire form of an account balance
type BalanceResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// CountResponse is the wire form of a count lookup
type CountResponse struct {
	Count uint64 `json:"count"`
}

// PlatformStateResponse is the wire form of the platform admin state
type PlatformStateResponse struct {
	AdminAddress string `json:"admin_address"`
	FeeBps       uint32 `json:"fee_bps"`
}
