package db

import "io"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplGrove Implementation = "grove"
)

// Feature represents database features as bit flags covering the tree
// store's command surface.
type Feature uint64

const (
	FeaturePut               Feature = 1 << iota // Put / PutMany
	FeatureCreate                                 // Create
	FeatureUpdate                                 // Update
	FeatureCompareAndSwap                         // CompareAndSwap
	FeatureDelete                                 // Delete / DeleteMany / DeletePayload
	FeatureQuery                                  // Get / Exists / Count / etc.
	FeatureKeepWhile                               // keep_while option on mutations
	FeatureTrigger                                 // RegisterTrigger
	FeatureProjection                              // RegisterProjection
	FeatureTransaction                              // RunTransaction
	FeatureSave                                   // Save operations
	FeatureLoad                                   // Load operations
)

func (f Feature) String() string {
	switch f {
	case FeaturePut:
		return "Put"
	case FeatureCreate:
		return "Create"
	case FeatureUpdate:
		return "Update"
	case FeatureCompareAndSwap:
		return "CompareAndSwap"
	case FeatureDelete:
		return "Delete"
	case FeatureQuery:
		return "Query"
	case FeatureKeepWhile:
		return "KeepWhile"
	case FeatureTrigger:
		return "Trigger"
	case FeatureProjection:
		return "Projection"
	case FeatureTransaction:
		return "Transaction"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// TreeDB defines an interface for hierarchical path-addressed tree store
// implementations: a tree of nodes addressed by path.Pattern, mutated
// through commands and observed through queries (Command and Query, both
// defined in this package).
//
// Every mutating method receives a writeIndex (the command's commit
// index) used as the logical timestamp for any side effect that depends
// on ordering.
type TreeDB interface {
	// --------------------------------------------------------------------------
	// Command Application
	// --------------------------------------------------------------------------

	// Apply deterministically applies a single command against the tree
	// and returns its reply. The change events the command produces are
	// not part of the return value.
	Apply(writeIndex uint64, cmd Command) (reply Reply, err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	Query(q Query) (Reply, error)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	Save(w io.Writer) (err error)
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	SupportsFeature(feature Feature) (ok bool)
	GetInfo() (info DatabaseInfo)

	// SetLeader informs the engine whether this replica currently holds
	// leadership, gating trigger firing (triggers only ever fire on the
	// leader, so a stored procedure they invoke never runs more than once
	// cluster-wide).
	SetLeader(isLeader bool)

	Close() (err error)
}
