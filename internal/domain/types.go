package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/gowebpki/jcs"
)

const (
	// BpsDenominator is the basis-point denominator: rates are integers out of 10000
	BpsDenominator = 10000
	// MaxRoyaltyBps is the maximum creator royalty rate (30%)
	MaxRoyaltyBps = 3000
	// MaxPlatformFeeBps is the maximum platform fee rate (10%)
	MaxPlatformFeeBps = 1000
	// DefaultPlatformFeeBps is the platform fee rate seeded on first start (2.5%)
	DefaultPlatformFeeBps = 250

	// MaxOwnedTokens caps the number of tokens a single account may hold
	MaxOwnedTokens = 1000

	// Bounds on lattice parameter payloads
	MaxConnections     = 256
	MaxTransformations = 32
	MaxExtraParams     = 64
)

// TokenID identifies one minted token: a collection plus a sequential
// index assigned at mint time, starting at 1, never reused.
type TokenID struct {
	CollectionID uint64 `json:"collection_id"`
	TokenIndex   uint64 `json:"token_index"`
}

// String returns the canonical "collectionID/tokenIndex" form
func (t TokenID) String() string {
	return fmt.Sprintf("%d/%d", t.CollectionID, t.TokenIndex)
}

// MetadataLocator derives the token's metadata locator from the
// collection's base locator. The document host serves JSON at this path.
func (t TokenID) MetadataLocator(base string) string {
	return strings.TrimSuffix(base, "/") + fmt.Sprintf("/%d", t.TokenIndex)
}

// Connection is one weighted edge between two lattice nodes
type Connection struct {
	From   uint32  `json:"from"`
	To     uint32  `json:"to"`
	Weight float64 `json:"weight"`
}

// LatticeParameters is the immutable structural description shared by all
// tokens in a collection. Combined with a token's seed it determines the
// token's unique rendering; it never changes after the collection is created.
type LatticeParameters struct {
	Dimensions      uint32            `json:"dimensions"`
	NodeCount       uint32            `json:"node_count"`
	Connections     []Connection      `json:"connections"`
	ColorScheme     string            `json:"color_scheme"`
	Transformations []string          `json:"transformations"`
	ExtraParams     map[string]string `json:"extra_params,omitempty"`
}

// Validate checks the structural constraints on lattice parameters.
// Errors wrap ErrInvalidParameters so callers can map them uniformly.
func (p *LatticeParameters) Validate() error {
	if p.Dimensions < 1 {
		return fmt.Errorf("%w: dimensions must be >= 1", ErrInvalidParameters)
	}
	if p.NodeCount < 2 {
		return fmt.Errorf("%w: node count must be >= 2", ErrInvalidParameters)
	}
	if len(p.Connections) > MaxConnections {
		return fmt.Errorf("%w: at most %d connections", ErrInvalidParameters, MaxConnections)
	}
	if len(p.Transformations) > MaxTransformations {
		return fmt.Errorf("%w: at most %d transformations", ErrInvalidParameters, MaxTransformations)
	}
	if len(p.ExtraParams) > MaxExtraParams {
		return fmt.Errorf("%w: at most %d extra params", ErrInvalidParameters, MaxExtraParams)
	}
	for i, c := range p.Connections {
		if c.From >= p.NodeCount || c.To >= p.NodeCount {
			return fmt.Errorf("%w: connection %d references node outside [0,%d)", ErrInvalidParameters, i, p.NodeCount)
		}
		if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return fmt.Errorf("%w: connection %d has non-finite weight", ErrInvalidParameters, i)
		}
	}
	return nil
}

// CanonicalHash returns the sha256 of the RFC 8785 canonical JSON form of
// the parameters. The hash is the parameter set's stable mathematical
// identity, handed to the rendering collaborator alongside each token's seed.
func (p *LatticeParameters) CanonicalHash() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal lattice parameters: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize lattice parameters: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
