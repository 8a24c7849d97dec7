package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/lattice-ledger/internal/api/middleware"
	"github.com/feral-file/lattice-ledger/internal/api/rest/dto"
	"github.com/feral-file/lattice-ledger/internal/ledger"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// CreateCollection registers a new collection
	// POST /api/v1/collections
	CreateCollection(c *gin.Context)

	// SetCollectionStatus opens or closes minting for a collection
	// PATCH /api/v1/collections/:id/status
	SetCollectionStatus(c *gin.Context)

	// GetCollection retrieves a single collection
	// GET /api/v1/collections/:id
	GetCollection(c *gin.Context)

	// ListCollections retrieves collections with pagination
	// GET /api/v1/collections?limit=<limit>&offset=<offset>
	ListCollections(c *gin.Context)

	// CountCollections returns the number of registered collections
	// GET /api/v1/collections/count
	CountCollections(c *gin.Context)

	// GetParameters retrieves a collection's lattice parameters
	// GET /api/v1/collections/:id/parameters
	GetParameters(c *gin.Context)

	// Mint mints the next token in a collection to the caller
	// POST /api/v1/collections/:id/tokens
	Mint(c *gin.Context)

	// GetToken retrieves a single token
	// GET /api/v1/collections/:id/tokens/:index
	GetToken(c *gin.Context)

	// GetTokenOwner retrieves a token's current owner
	// GET /api/v1/collections/:id/tokens/:index/owner
	GetTokenOwner(c *gin.Context)

	// Transfer moves a token from the caller to another account
	// POST /api/v1/collections/:id/tokens/:index/transfer
	Transfer(c *gin.Context)

	// CreateListing lists a token the caller owns for sale
	// POST /api/v1/collections/:id/tokens/:index/listing
	CreateListing(c *gin.Context)

	// GetListing retrieves a token's listing
	// GET /api/v1/collections/:id/tokens/:index/listing
	GetListing(c *gin.Context)

	// CancelListing removes the caller's listing
	// DELETE /api/v1/collections/:id/tokens/:index/listing
	CancelListing(c *gin.Context)

	// Buy purchases a listed token at the listed price
	// POST /api/v1/collections/:id/tokens/:index/purchase
	Buy(c *gin.Context)

	// GetOwnedTokens retrieves an account's tokens
	// GET /api/v1/accounts/:address/tokens?limit=<limit>&offset=<offset>
	GetOwnedTokens(c *gin.Context)

	// GetBalance retrieves an account's balance
	// GET /api/v1/accounts/:address/balance
	GetBalance(c *gin.Context)

	// Deposit credits an account (operator endpoint, API key auth)
	// POST /api/v1/accounts/:address/deposit
	Deposit(c *gin.Context)

	// GetPlatformState retrieves the platform admin and fee rate
	// GET /api/v1/platform
	GetPlatformState(c *gin.Context)

	// SetPlatformFee updates the platform fee rate (admin only)
	// PUT /api/v1/platform/fee
	SetPlatformFee(c *gin.Context)

	// SetAdmin hands platform administration to a new account (admin only)
	// PUT /api/v1/platform/admin
	SetAdmin(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	ledger ledger.Ledger
}

// NewHandler creates a new REST API handler over the ledger service
func NewHandler(l ledger.Ledger) Handler {
	return &handler{
		ledger: l,
	}
}

// CreateCollection registers a new collection
func (h *handler) CreateCollection(c *gin.Context) {
	var req dto.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	collection, err := h.ledger.CreateCollection(c.Request.Context(), ledger.CreateCollectionRequest{
		CreatorAddress:  middleware.CallerAddress(c),
		Name:            req.Name,
		Description:     req.Description,
		MaxSupply:       req.MaxSupply,
		MintPrice:       req.MintPrice,
		RoyaltyBps:      req.RoyaltyBps,
		MetadataLocator: req.MetadataLocator,
		Parameters:      req.Parameters.Domain(),
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCollectionResponse(collection))
}

// SetCollectionStatus opens or closes minting for a collection
func (h *handler) SetCollectionStatus(c *gin.Context) {
	collectionID, err := parseCollectionID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req dto.SetCollectionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	collection, err := h.ledger.SetCollectionStatus(c.Request.Context(), collectionID, *req.IsOpen, middleware.CallerAddress(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCollectionResponse(collection))
}

// GetCollection retrieves a single collection
func (h *handler) GetCollection(c *gin.Context) {
	collectionID, err := parseCollectionID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	collection, err := h.ledger.GetCollection(c.Request.Context(), collectionID)
	if err != nil {
		respondInternalError(c, err, "Failed to get collection")
		return
	}
	if collection == nil {
		respondNotFound(c, "Collection not found")
		return
	}

	c.JSON(http.StatusOK, dto.NewCollectionResponse(collection))
}

// ListCollections retrieves collections with pagination
func (h *handler) ListCollections(c *gin.Context) {
	params, err := ParsePagination(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	collections, err := h.ledger.ListCollections(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list collections")
		return
	}

	response := dto.CollectionListResponse{
		Collections: make([]*dto.CollectionResponse, 0, len(collections)),
		Limit:       params.Limit,
		Offset:      params.Offset,
	}
	for _, collection := range collections {
		response.Collections = append(response.Collections, dto.NewCollectionResponse(collection))
	}

	c.JSON(http.StatusOK, response)
}

// CountCollections returns the number of registered collections
func (h *handler) CountCollections(c *gin.Context) {
	count, err := h.ledger.CountCollections(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to count collections")
		return
	}

	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

// GetParameters retrieves a collection's lattice parameters
func (h *handler) GetParameters(c *gin.Context) {
	collectionID, err := parseCollectionID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	params, err := h.ledger.GetLatticeParameters(c.Request.Context(), collectionID)
	if err != nil {
		respondInternalError(c, err, "Failed to get lattice parameters")
		return
	}
	if params == nil {
		respondNotFound(c, "Collection not found")
		return
	}

	var paramsHash string
	if collection, err := h.ledger.GetCollection(c.Request.Context(), collectionID); err == nil && collection != nil {
		paramsHash = collection.ParamsHash
	}

	response, err := dto.NewParametersResponse(params, paramsHash)
	if err != nil {
		respondInternalError(c, err, "Failed to decode lattice parameters")
		return
	}

	c.JSON(http.StatusOK, response)
}

// Mint mints the next token in a collection to the caller
func (h *handler) Mint(c *gin.Context) {
	collectionID, err := parseCollectionID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req dto.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	token, err := h.ledger.Mint(c.Request.Context(), collectionID, req.Seed, middleware.CallerAddress(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTokenResponse(token))
}

// GetToken retrieves a single token
func (h *handler) GetToken(c *gin.Context) {
	tokenID, err := parseTokenID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	token, err := h.ledger.GetToken(c.Request.Context(), tokenID)
	if err != nil {
		respondInternalError(c, err, "Failed to get token")
		return
	}
	if token == nil {
		respondNotFound(c, "Token not found")
		return
	}

	c.JSON(http.StatusOK, dto.NewTokenResponse(token))
}

// GetTokenOwner retrieves a token's current owner
func (h *handler) GetTokenOwner(c *gin.Context) {
	tokenID, err := parseTokenID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	token, err := h.ledger.GetToken(c.Request.Context(), tokenID)
	if err != nil {
		respondInternalError(c, err, "Failed to get token")
		return
	}
	if token == nil {
		respondNotFound(c, "Token not found")
		return
	}

	c.JSON(http.StatusOK, dto.OwnerResponse{
		CollectionID: token.CollectionID,
		TokenIndex:   token.TokenIndex,
		OwnerAddress: token.OwnerAddress,
	})
}

// Transfer moves a token from the caller to another account
func (h *handler) Transfer(c *gin.Context) {
	tokenID, err := parseTokenID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	token, err := h.ledger.Transfer(c.Request.Context(), tokenID, middleware.CallerAddress(c), req.To)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTokenResponse(token))
}

// CreateListing lists a token the caller owns for sale
func (h *handler) CreateListing(c *gin.Context) {
	tokenID, err := parseTokenID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	listing, err := h.ledger.ListForSale(c.Request.Context(), tokenID, middleware.CallerAddress(c), req.Price)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewListingResponse(listing))
}

// GetListing retrieves a token's listing
func (h *handler) GetListing(c *gin.Context) {
	tokenID, err := parseTokenID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	listing, err := h.ledger.GetListing(c.Request.Context(), tokenID)
	if err != nil {
		respondInternalError(c, err, "Failed to get listing")
		return
	}
	if listing == nil {
		respondNotFound(c, "Listing not found")
		return
	}

	c.JSON(http.StatusOK, dto.NewListingResponse(listing))
}

// CancelListing removes the caller's listing
func (h *handler) CancelListing(c *gin.Context) {
	tokenID, err := parseTokenID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.ledger.CancelListing(c.Request.Context(), tokenID, middleware.CallerAddress(c)); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Buy purchases a listed token at the listed price
func (h *handler) Buy(c *gin.Context) {
	tokenID, err := parseTokenID(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.ledger.Buy(c.Request.Context(), tokenID, middleware.CallerAddress(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSaleResponse(result))
}

// GetOwnedTokens retrieves an account's tokens
func (h *handler) GetOwnedTokens(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "Account address is required")
		return
	}

	params, err := ParsePagination(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	tokens, err := h.ledger.GetOwnedTokens(c.Request.Context(), address, params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, err, "Failed to get owned tokens")
		return
	}

	response := dto.TokenListResponse{
		Tokens: make([]*dto.TokenResponse, 0, len(tokens)),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, token := range tokens {
		response.Tokens = append(response.Tokens, dto.NewTokenResponse(token))
	}

	c.JSON(http.StatusOK, response)
}

// GetBalance retrieves an account's balance
func (h *handler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "Account address is required")
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), address)
	if err != nil {
		respondInternalError(c, err, "Failed to get balance")
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{Address: address, Balance: balance})
}

// Deposit credits an account (operator endpoint)
func (h *handler) Deposit(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "Account address is required")
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	balance, err := h.ledger.Deposit(c.Request.Context(), address, req.Amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{Address: address, Balance: balance})
}

// GetPlatformState retrieves the platform admin and fee rate
func (h *handler) GetPlatformState(c *gin.Context) {
	state, err := h.ledger.GetPlatformState(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to get platform state")
		return
	}
	if state == nil {
		respondNotFound(c, "Platform state not seeded")
		return
	}

	c.JSON(http.StatusOK, dto.PlatformStateResponse{
		AdminAddress: state.AdminAddress,
		FeeBps:       state.FeeBps,
	})
}

// SetPlatformFee updates the platform fee rate (admin only)
func (h *handler) SetPlatformFee(c *gin.Context) {
	var req dto.SetPlatformFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := h.ledger.SetPlatformFeeBps(c.Request.Context(), *req.FeeBps, middleware.CallerAddress(c)); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetAdmin hands platform administration to a new account (admin only)
func (h *handler) SetAdmin(c *gin.Context) {
	var req dto.SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := h.ledger.SetAdmin(c.Request.Context(), req.AdminAddress, middleware.CallerAddress(c)); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "lattice-ledger-api",
	})
}
