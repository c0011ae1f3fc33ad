// Package grove implements db.TreeDB against an in-memory ownership tree
// (lib/tree), guarded by a keep-while lifetime graph (lib/keepwhile) and
// observed by a trigger/projection dispatcher (lib/dispatch). It plays the
// same role for the tree store that the maple engine plays for the flat
// key-value store: the single concrete implementation every replica
// applies commands against deterministically.
package grove
