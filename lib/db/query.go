package db

import "github.com/grove-db/grove/lib/path"

// QueryType enumerates the read-only operations dispatched via
// TreeDB.Query: Get, Exists, Count, and GetDBInfo over the tree's
// pattern-addressed reads.
type QueryType uint8

const (
	QueryGet QueryType = iota
	QueryExists
	QueryCount
	QueryGetDBInfo
)

func (q QueryType) String() string {
	switch q {
	case QueryGet:
		return "Get"
	case QueryExists:
		return "Exists"
	case QueryCount:
		return "Count"
	case QueryGetDBInfo:
		return "GetDBInfo"
	default:
		return "Unknown"
	}
}

// Query is a single read-only request. Only the fields relevant to Type
// are populated; Favor tunes freshness for the replicated store layer,
// not the in-process engine itself.
type Query struct {
	Type    QueryType
	Pattern path.Pattern
	Options Options
}
