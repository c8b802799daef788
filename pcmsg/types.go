// Package pcmsg implements the wire codec for the primary-component
// membership/state-exchange message used during primary-component
// formation: a compact per-member state record (PInst) keyed by member
// UUID, carried inside a small versioned header.
package pcmsg

import "fmt"

// MemberUUID identifies a cluster member. It is an opaque fixed-size value;
// this package uses no UUID library and has no helper that generates or
// parses one: callers supply the 16 bytes.
type MemberUUID [16]byte

func (u MemberUUID) String() string {
	return fmt.Sprintf("%x", [16]byte(u))
}

// ViewId is an opaque cluster-view identifier supplied by the group
// communication layer: a member UUID plus a monotonic sequence.
type ViewId struct {
	UUID MemberUUID
	Seq  int64
}

// NoLastSeq is the sentinel written when a member has never delivered a
// sequence: PInst.LastSeq is conceptually "-1 cast to unsigned".
const NoLastSeq uint32 = 0xFFFFFFFF

// PInst is the per-member primary-component state record.
type PInst struct {
	LastSeq  uint32
	LastPrim ViewId
	ToSeq    uint64
}

// Equal reports whether two PInst values hold the same three fields.
func (p PInst) Equal(o PInst) bool {
	return p.LastSeq == o.LastSeq && p.LastPrim == o.LastPrim && p.ToSeq == o.ToSeq
}

// Type enumerates the PC message kinds. NONE is not a valid value on the
// wire; it exists only as the zero value of a freshly constructed Message
// before a type-specific constructor or Read populates it.
type Type uint8

const (
	TypeNone Type = iota
	TypeState
	TypeInstall
	TypeUser
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "NONE"
	case TypeState:
		return "STATE"
	case TypeInstall:
		return "INSTALL"
	case TypeUser:
		return "USER"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// hasInstanceMap reports whether messages of this type carry an instance map.
func (t Type) hasInstanceMap() bool {
	return t == TypeState || t == TypeInstall
}
