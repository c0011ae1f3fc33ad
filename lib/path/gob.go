package path

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// init registers every concrete Component/Condition implementation this
// package defines so a gob.Encoder can round-trip a Pattern or Condition
// through an interface field (e.g. inside a replicated command) without
// every caller having to remember to do it themselves. Types defined
// outside this package (a caller's own Condition) still need their own
// gob.Register call, same as any other gob interface value.
func init() {
	gob.Register(Literal{})
	gob.Register(LiteralCond{})
	gob.Register(Cond{})
	gob.Register(Wildcard{})
	gob.Register(WildcardDeep{})

	gob.Register(NodeExists{})
	gob.Register(HasData{})
	gob.Register(HasSproc{})
	gob.Register(HasPayload{})
	gob.Register(PayloadVersionEquals{})
	gob.Register(ChildListVersionEquals{})
	gob.Register(ChildListLengthEquals{})
	gob.Register(NameRegex{})
	gob.Register(All{})
	gob.Register(Any{})
	gob.Register(Not{})
}

// GobEncode lets a NameRegex cross gob despite regexp.Regexp having no
// exported fields of its own: only the source expression survives the
// round trip, and is recompiled on decode.
func (c NameRegex) GobEncode() ([]byte, error) {
	src := ""
	if c.Re != nil {
		src = c.Re.String()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *NameRegex) GobDecode(data []byte) error {
	var src string
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&src); err != nil {
		return err
	}
	re, err := CompileNameRegex(src)
	if err != nil {
		return fmt.Errorf("decode NameRegex: %w", err)
	}
	*c = re
	return nil
}

// GobEncode lets a NodeID cross gob despite its unexported fields: the
// canonical string form (see NodeID.String) is encoded, and ParseNodeID
// rebuilds an equal identifier on decode.
func (n NodeID) GobEncode() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *NodeID) GobDecode(data []byte) error {
	id, err := ParseNodeID(string(data))
	if err != nil {
		return fmt.Errorf("decode NodeID: %w", err)
	}
	*n = id
	return nil
}

// DataMatches wraps a Go closure (Predicate), which cannot survive gob
// encoding under any circumstance. HasUnencodableCondition reports whether
// cond (or any condition it contains) is a DataMatches, so callers building
// a replicated command can reject it up front with a clear error instead of
// failing deep inside a gob.Encoder with an opaque message.
func HasUnencodableCondition(cond Condition) bool {
	switch c := cond.(type) {
	case nil:
		return false
	case DataMatches:
		return true
	case All:
		for _, sub := range c {
			if HasUnencodableCondition(sub) {
				return true
			}
		}
	case Any:
		for _, sub := range c {
			if HasUnencodableCondition(sub) {
				return true
			}
		}
	case Not:
		return HasUnencodableCondition(c.Cond)
	}
	return false
}

// PatternHasUnencodableCondition reports whether any component of p carries
// a DataMatches condition, directly or through a LiteralCond/Cond wrapper.
func PatternHasUnencodableCondition(p Pattern) bool {
	for _, c := range p {
		switch v := c.(type) {
		case LiteralCond:
			if HasUnencodableCondition(v.Extra) {
				return true
			}
		case Cond:
			if HasUnencodableCondition(v.Condition) {
				return true
			}
		}
	}
	return false
}
