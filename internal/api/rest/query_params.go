package rest

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/lattice-ledger/internal/domain"
)

const MAX_PAGE_SIZE = 100

// PaginationParams holds limit/offset query parameters for list endpoints
type PaginationParams struct {
	Limit  int    `form:"limit,default=20"`
	Offset uint64 `form:"offset,default=0"`
}

// ParsePagination parses and caps pagination query parameters
func ParsePagination(c *gin.Context) (*PaginationParams, error) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > MAX_PAGE_SIZE {
		params.Limit = MAX_PAGE_SIZE
	}

	return &params, nil
}

// parseCollectionID parses the :id path parameter
func parseCollectionID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid collection id %q", c.Param("id"))
	}
	return id, nil
}

// parseTokenID parses the :id and :index path parameters
func parseTokenID(c *gin.Context) (domain.TokenID, error) {
	collectionID, err := parseCollectionID(c)
	if err != nil {
		return domain.TokenID{}, err
	}
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil || index == 0 {
		return domain.TokenID{}, fmt.Errorf("invalid token index %q", c.Param("index"))
	}
	return domain.TokenID{CollectionID: collectionID, TokenIndex: index}, nil
}
