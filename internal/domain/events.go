package domain

import "time"

// EventType represents the type of ledger event
type EventType string

const (
	EventTypeCollectionCreated       EventType = "collection_created"
	EventTypeCollectionStatusChanged EventType = "collection_status_changed"
	EventTypeTokenMinted             EventType = "token_minted"
	EventTypeTokenTransferred        EventType = "token_transferred"
	EventTypeTokenListed             EventType = "token_listed"
	EventTypeListingCancelled        EventType = "listing_cancelled"
	EventTypeSaleSettled             EventType = "sale_settled"
)

// LedgerEvent is the normalized record of a successful state mutation,
// published to the message broker after the transaction commits.
type LedgerEvent struct {
	ID           string    `json:"id"` // ULID, sortable by emission time
	Type         EventType `json:"type"`
	Height       uint64    `json:"height"`
	CollectionID uint64    `json:"collection_id,omitempty"`
	TokenIndex   uint64    `json:"token_index,omitempty"`
	FromAddress  string    `json:"from_address,omitempty"`
	ToAddress    string    `json:"to_address,omitempty"`
	Price        uint64    `json:"price,omitempty"`
	PlatformFee  uint64    `json:"platform_fee,omitempty"`
	Royalty      uint64    `json:"royalty,omitempty"`
	SellerAmount uint64    `json:"seller_amount,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
