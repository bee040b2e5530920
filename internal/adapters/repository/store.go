// Package repository indexes catalog tables by train ID and answers the
// lookups that drive light-curve retrieval.
package repository

import (
	"context"
	"maps"
	"slices"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/domain/band"
)

// Object classes.
const (
	ClassAGN    = "AGN"
	ClassNonAGN = "non-AGN"
)

// Record is one catalog row resolved for retrieval.
type Record struct {
	TrainID       int64                 `json:"train_id"`
	Class         string                `json:"class"`
	Source        string                `json:"source"`
	Label         string                `json:"label,omitempty"`
	Extinction    map[band.Band]float64 `json:"extinction"`
	LightCurveKey string                `json:"light_curve_key"`
	CrossIDs      map[string]string     `json:"cross_ids,omitempty"`
	Columns       []string              `json:"-"`
}

// Clone returns a copy of r that shares no maps or slices with it.
func (r Record) Clone() Record {
	r.Extinction = maps.Clone(r.Extinction)
	r.CrossIDs = maps.Clone(r.CrossIDs)
	r.Columns = slices.Clone(r.Columns)
	return r
}

// IDEntry pairs a train ID with its class.
type IDEntry struct {
	TrainID int64  `json:"train_id"`
	Type    string `json:"type"`
}

// Source describes one catalog: its name, the class of all its objects and
// which column holds the key its light curves are stored under.
type Source struct {
	Name        string
	Class       string
	KeyColumn   string
	LabelColumn string
}

// Quasar and variable star catalogs as shipped with the training set.
var (
	QSOSource = Source{Name: "qso", Class: ClassAGN, KeyColumn: TrainIDColumn, LabelColumn: "class"}
	VarSource = Source{Name: "vstar", Class: ClassNonAGN, KeyColumn: "ivz_id", LabelColumn: "class"}
)

// TrainIDColumn is the catalog column holding the unique object id.
const TrainIDColumn = "train_id"

// Table is a loaded catalog together with its description.
type Table struct {
	Source  Source
	Catalog *archive.Table
}

// Store provides read access to the indexed catalogs.
type Store interface {
	// Lookup returns the record for id or ErrUnknownObjectID.
	Lookup(ctx context.Context, id int64) (Record, error)
	// Extinction returns the extinction of id in band b.
	Extinction(ctx context.Context, id int64, b band.Band) (float64, error)
	// Contains reports whether any catalog holds id.
	Contains(ctx context.Context, id int64) bool
	// IDs lists every train ID with its class, ascending by ID.
	IDs(ctx context.Context) []IDEntry
	// Records returns all records of one catalog in file order.
	Records(ctx context.Context, source string) ([]Record, error)
	// Catalog returns the raw catalog table of one source.
	Catalog(ctx context.Context, source string) (*archive.Table, error)
	// Sources lists the catalog names in load order.
	Sources(ctx context.Context) []string
	// Count returns the number of indexed objects.
	Count(ctx context.Context) int
	// LightCurveKey translates a train ID into its light-curve key.
	LightCurveKey(ctx context.Context, id int64) (string, error)
}
