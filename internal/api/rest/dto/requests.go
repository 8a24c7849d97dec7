package dto

import "github.com/feral-file/lattice-ledger/internal/domain"

// ConnectionPayload is one weighted lattice edge as submitted by clients
type ConnectionPayload struct {
	From   uint32  `json:"from"`
	To     uint32  `json:"to"`
	Weight float64 `json:"weight"`
}

// ParametersPayload is the lattice parameter set as submitted by clients
type ParametersPayload struct {
	Dimensions      uint32              `json:"dimensions"`
	NodeCount       uint32              `json:"node_count"`
	Connections     []ConnectionPayload `json:"connections"`
	ColorScheme     string              `json:"color_scheme"`
	Transformations []string            `json:"transformations"`
	ExtraParams     map[string]string   `json:"extra_params"`
}

// Domain converts the payload to the domain representation
func (p *ParametersPayload) Domain() domain.LatticeParameters {
	connections := make([]domain.Connection, 0, len(p.Connections))
	for _, c := range p.Connections {
		connections = append(connections, domain.Connection{From: c.From, To: c.To, Weight: c.Weight})
	}
	return domain.LatticeParameters{
		Dimensions:      p.Dimensions,
		NodeCount:       p.NodeCount,
		Connections:     connections,
		ColorScheme:     p.ColorScheme,
		Transformations: p.Transformations,
		ExtraParams:     p.ExtraParams,
	}
}

// CreateCollectionRequest is the body of POST /collections
type CreateCollectionRequest struct {
	Name            string            `json:"name" binding:"required"`
	Description     string            `json:"description"`
	MaxSupply       uint64            `json:"max_supply" binding:"required"`
	MintPrice       uint64            `json:"mint_price"`
	RoyaltyBps      uint32            `json:"royalty_bps"`
	MetadataLocator string            `json:"metadata_locator" binding:"required"`
	Parameters      ParametersPayload `json:"parameters" binding:"required"`
}

// SetCollectionStatusRequest is the body of PATCH /collections/:id/status
type SetCollectionStatusRequest struct {
	IsOpen *bool `json:"is_open" binding:"required"`
}

// MintRequest is the body of POST /collections/:id/tokens
type MintRequest struct {
	Seed string `json:"seed" binding:"required"`
}

// TransferRequest is the body of POST /collections/:id/tokens/:index/transfer
type TransferRequest struct {
	To string `json:"to" binding:"required"`
}

// CreateListingRequest is the body of POST /collections/:id/tokens/:index/listing
type CreateListingRequest struct {
	Price uint64 `json:"price" binding:"required"`
}

// SetPlatformFeeRequest is the body of PUT /platform/fee
type SetPlatformFeeRequest struct {
	FeeBps *uint32 `json:"fee_bps" binding:"required"`
}

// SetAdminRequest is the body of PUT /platform/admin
type SetAdminRequest struct {
	AdminAddress string `json:"admin_address" binding:"required"`
}

// DepositRequest is the body of POST /accounts/:address/deposit
type DepositRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}
