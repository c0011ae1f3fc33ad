package internal

import (
	"github.com/grove-db/grove/lib/db"
	"github.com/grove-db/grove/lib/path"
)

// Query is the SyncRead/StaleRead payload for a read-only lookup. Unlike
// Command it needs no Serialize/Deserialize pair: dragonboat hands the
// query value itself to Lookup rather than a []byte, so the struct just
// has to be a plain value the state machine's Lookup can type-assert.
type Query struct {
	Type    db.QueryType
	Pattern path.Pattern
	Options db.Options
}

// NewQuery validates that q can be evaluated by a state machine (queries
// never carry a closure-bearing condition since db.Query has no
// DataMatches field of its own, but the pattern it searches with might).
func NewQuery(q db.Query) (Query, error) {
	if path.PatternHasUnencodableCondition(q.Pattern) {
		return Query{}, errUnencodablePattern
	}
	return Query{Type: q.Type, Pattern: q.Pattern, Options: q.Options}, nil
}

func (q Query) ToDBQuery() db.Query {
	return db.Query{Type: q.Type, Pattern: q.Pattern, Options: q.Options}
}

// QueryResult is the result of QueryGet; every other query type returns a
// primitive or db.DatabaseInfo directly through Lookup's interface{}.
type QueryResult struct {
	Ok    bool
	Props path.NodeProps
}

var errUnencodablePattern = queryErr("query pattern contains a DataMatches predicate, which cannot reach a remote replica")

type queryErr string

func (e queryErr) Error() string { return string(e) }
