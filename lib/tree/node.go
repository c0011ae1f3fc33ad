package tree

import (
	"github.com/grove-db/grove/lib/path"
)

// PayloadKind tags the variant carried by a Node's payload.
type PayloadKind uint8

const (
	PayloadNone PayloadKind = iota
	PayloadData
	PayloadSproc
)

// Payload is the sum-typed content of a node: absent, opaque data, or a
// stored procedure reference. SprocRef names an entry in a process-local
// stored-procedure registry rather than carrying a Go closure directly,
// since neither gob nor any serializer in this module can round-trip a
// func value through a snapshot.
type Payload struct {
	Kind    PayloadKind
	Data    any
	SprocRef string
}

func NonePayload() Payload           { return Payload{Kind: PayloadNone} }
func DataPayload(v any) Payload      { return Payload{Kind: PayloadData, Data: v} }
func SprocPayload(ref string) Payload { return Payload{Kind: PayloadSproc, SprocRef: ref} }

func (p Payload) HasData() bool    { return p.Kind == PayloadData }
func (p Payload) IsSproc() bool    { return p.Kind == PayloadSproc }
func (p Payload) HasPayload() bool { return p.Kind != PayloadNone }

// Node is one entity of the tree. It owns its children map directly rather
// than through an intermediate index, matching a hierarchical structure
// rather than a flat sharded key space.
type Node struct {
	Payload          Payload
	PayloadVersion   uint64
	ChildListVersion uint64
	Children         map[string]*Node
}

// NewNode returns a freshly created node: no payload, both counters at 0.
// PayloadVersion and ChildListVersion are bump-on-write counters, so a
// node that exists but has never had a payload set or a child inserted
// stays at 0; the first SetPayload or child Insert is what takes a
// counter to 1.
func NewNode() *Node {
	return &Node{
		Payload:  NonePayload(),
		Children: make(map[string]*Node),
	}
}

// Props renders the read-only view consumed by lib/path conditions and by
// the change-event schema.
func (n *Node) Props(id path.NodeID, exists bool) path.NodeProps {
	if n == nil || !exists {
		return path.NodeProps{ID: id, Exists: false}
	}
	names := make([]string, 0, len(n.Children))
	for k := range n.Children {
		names = append(names, k)
	}
	return path.NodeProps{
		ID:               id,
		Exists:           true,
		HasData:          n.Payload.HasData(),
		IsSproc:          n.Payload.IsSproc(),
		HasPayload:       n.Payload.HasPayload(),
		Data:             n.Payload.Data,
		PayloadVersion:   n.PayloadVersion,
		ChildListVersion: n.ChildListVersion,
		ChildListLength:  len(n.Children),
		ChildNames:       names,
	}
}

// childKey is the map key a NodeID is stored under: the canonical string
// form is stable and collision-free between Name and Bytes variants
// because String() tags each with a distinct prefix.
func childKey(id path.NodeID) string { return id.String() }
