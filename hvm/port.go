package hvm

import "fmt"

// Tag is the 3-bit kind of a Port.
type Tag uint8

const (
	TagVar Tag = iota
	TagRef
	TagEra
	TagNum
	TagCon
	TagDup
	TagOpr
	TagSwi
)

// String returns the tag name.
func (t Tag) String() string {
	switch t {
	case TagVar:
		return "VAR"
	case TagRef:
		return "REF"
	case TagEra:
		return "ERA"
	case TagNum:
		return "NUM"
	case TagCon:
		return "CON"
	case TagDup:
		return "DUP"
	case TagOpr:
		return "OPR"
	case TagSwi:
		return "SWI"
	default:
		return fmt.Sprintf("TAG(%d)", uint8(t))
	}
}

// IsNode reports whether ports with this tag point into the node array.
func (t Tag) IsNode() bool {
	return t >= TagCon && t <= TagSwi
}

// MaxVal is the largest value a Port can carry.
const MaxVal = 1<<29 - 1

// Port is a tagged 32-bit reference: value in the high 29 bits, tag in the low 3.
type Port uint32

const (
	// RootPort is the variable the entry definition is bound to.
	RootPort Port = Port(MaxVal<<3) | Port(TagVar)

	// NonePort marks an empty variable slot.
	NonePort Port = 0xFFFFFFFF
)

// parFlag marks a redex whose left REF port may be expanded in parallel.
const parFlag = 0x10000000

// NewPort builds a port. Values above MaxVal are truncated.
func NewPort(tag Tag, val uint32) Port {
	return Port(val<<3 | uint32(tag&7))
}

// Tag returns the port tag.
func (p Port) Tag() Tag {
	return Tag(p & 7)
}

// Val returns the port value.
func (p Port) Val() uint32 {
	return uint32(p) >> 3
}

// RefID returns the definition id of a REF port, without the parallel flag.
func (p Port) RefID() uint32 {
	return p.Val() &^ parFlag
}

// IsNode reports whether the port points into the node array.
func (p Port) IsNode() bool {
	return p.Tag().IsNode()
}

// String renders the port as TAG:VALUE.
func (p Port) String() string {
	switch p {
	case RootPort:
		return "ROOT"
	case NonePort:
		return "NONE"
	}
	return fmt.Sprintf("%s:%07X", p.Tag(), p.Val())
}

// Pair holds two ports: the first in the low 32 bits, the second in the high.
type Pair uint64

// NewPair packs two ports.
func NewPair(fst, snd Port) Pair {
	return Pair(uint64(snd)<<32 | uint64(fst))
}

// Fst returns the first port.
func (p Pair) Fst() Port {
	return Port(p & 0xFFFFFFFF)
}

// Snd returns the second port.
func (p Pair) Snd() Port {
	return Port(p >> 32)
}

// WithParFlag marks the pair as eligible for parallel reduction.
// Only redexes whose first port is a REF carry the flag; others are
// returned unchanged.
func (p Pair) WithParFlag() Pair {
	fst := p.Fst()
	if fst.Tag() != TagRef {
		return p
	}
	return NewPair(NewPort(TagRef, fst.Val()|parFlag), p.Snd())
}

// ParFlag reports whether the pair carries the parallel flag.
func (p Pair) ParFlag() bool {
	fst := p.Fst()
	return fst.Tag() == TagRef && fst.Val()&parFlag != 0
}

// String renders the pair as "fst snd".
func (p Pair) String() string {
	return p.Fst().String() + " " + p.Snd().String()
}
