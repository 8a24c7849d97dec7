package schema

import (
	"time"

	"gorm.io/datatypes"
)

// LatticeParameters represents the lattice_parameters table - the write-once
// structural description of a collection's assets. One row per collection,
// created in the same transaction as the collection, never updated: the
// parameters are part of the asset's mathematical identity.
type LatticeParameters struct {
	// CollectionID is both primary key and foreign key: strict one-to-one with collections
	CollectionID uint64 `gorm:"column:collection_id;primaryKey"`
	Dimensions   uint32 `gorm:"column:dimensions;not null"`
	NodeCount    uint32 `gorm:"column:node_count;not null"`
	ColorScheme  string `gorm:"column:color_scheme;not null;type:text"`
	// Connections is the JSON array of (from, to, weight) edges
	Connections datatypes.JSON `gorm:"column:connections;type:jsonb"`
	// Transformations is the JSON array of transformation names
	Transformations datatypes.JSON `gorm:"column:transformations;type:jsonb"`
	// ExtraParams is the JSON object of free-form key/value parameters
	ExtraParams datatypes.JSON `gorm:"column:extra_params;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the LatticeParameters model
func (LatticeParameters) TableName() string {
	return "lattice_parameters"
}
