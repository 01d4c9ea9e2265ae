package hvm

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// Default capacities of a GNet.
const (
	DefaultNodeCapacity = 1 << 20
	DefaultVarCapacity  = 1 << 20
)

// ErrOutOfMemory is returned when an allocation exceeds the net's capacity.
var ErrOutOfMemory = errors.New("hvm: graph memory exhausted")

// GNet is the graph memory an evaluator works in: a node array, a var
// array, the root binding and a bag of pending redexes.
//
// Node and var locations are handed out by bump allocation. Var location 0
// is never allocated so that a zeroed slot always reads as empty.
type GNet struct {
	node []Pair
	vars []Port
	root Port
	rbag []Pair

	nput uint32
	vput uint32

	itrs atomic.Uint64
}

// GNetOption configures a GNet.
type GNetOption func(*GNet)

// WithNodeCapacity sets the number of node slots.
func WithNodeCapacity(n int) GNetOption {
	return func(g *GNet) {
		g.node = make([]Pair, n)
	}
}

// WithVarCapacity sets the number of var slots.
func WithVarCapacity(n int) GNetOption {
	return func(g *GNet) {
		g.vars = make([]Port, n)
	}
}

// NewGNet allocates graph memory.
func NewGNet(opts ...GNetOption) *GNet {
	g := &GNet{root: NonePort, vput: 1}
	for _, opt := range opts {
		opt(g)
	}
	if g.node == nil {
		g.node = make([]Pair, DefaultNodeCapacity)
	}
	if g.vars == nil {
		g.vars = make([]Port, DefaultVarCapacity)
	}
	return g
}

// NodeCreate stores a pair at loc.
func (g *GNet) NodeCreate(loc uint32, pair Pair) {
	g.node[loc] = pair
}

// NodeLoad returns the pair at loc. ok is false when loc is outside the
// node array.
func (g *GNet) NodeLoad(loc uint32) (pair Pair, ok bool) {
	if int(loc) >= len(g.node) {
		return 0, false
	}
	return g.node[loc], true
}

// Capacity returns the number of node and var slots.
func (g *GNet) Capacity() (nodes, vars int) {
	return len(g.node), len(g.vars)
}

// VarsCreate binds the var at loc.
func (g *GNet) VarsCreate(loc uint32, port Port) {
	if loc == RootPort.Val() {
		g.root = port
		return
	}
	g.vars[loc] = port
}

// VarsLoad returns the binding of the var at loc.
func (g *GNet) VarsLoad(loc uint32) Port {
	if loc == RootPort.Val() {
		return g.root
	}
	if int(loc) >= len(g.vars) {
		return NonePort
	}
	return g.vars[loc]
}

// Enter follows one variable binding. Non-VAR ports and unbound vars are
// returned unchanged. Enter never writes to the net.
func (g *GNet) Enter(p Port) Port {
	if p.Tag() != TagVar {
		return p
	}
	got := g.VarsLoad(p.Val())
	if got == NonePort || got == 0 {
		return p
	}
	return got
}

// AllocNodes reserves n contiguous node slots and returns the first.
func (g *GNet) AllocNodes(n int) (uint32, error) {
	if uint64(g.nput)+uint64(n) > uint64(len(g.node)) {
		return 0, fmt.Errorf("%w: %d nodes requested, %d of %d used", ErrOutOfMemory, n, g.nput, len(g.node))
	}
	loc := g.nput
	g.nput += uint32(n)
	return loc, nil
}

// AllocVars reserves n contiguous var slots, marks them empty and returns the first.
func (g *GNet) AllocVars(n int) (uint32, error) {
	if uint64(g.vput)+uint64(n) > uint64(len(g.vars)) {
		return 0, fmt.Errorf("%w: %d vars requested, %d of %d used", ErrOutOfMemory, n, g.vput, len(g.vars))
	}
	loc := g.vput
	g.vput += uint32(n)
	for i := loc; i < g.vput; i++ {
		g.vars[i] = NonePort
	}
	return loc, nil
}

// Expand instantiates a definition into fresh memory and returns its
// relocated root port. The definition's redexes are pushed to the bag.
func (g *GNet) Expand(def *Def) (Port, error) {
	// Both checks come first so a failed expansion allocates nothing.
	if uint64(g.nput)+uint64(len(def.Node)) > uint64(len(g.node)) {
		return 0, fmt.Errorf("%w: expanding %s needs %d nodes, %d of %d used", ErrOutOfMemory, def.Name, len(def.Node), g.nput, len(g.node))
	}
	if uint64(g.vput)+uint64(def.Vars) > uint64(len(g.vars)) {
		return 0, fmt.Errorf("%w: expanding %s needs %d vars, %d of %d used", ErrOutOfMemory, def.Name, def.Vars, g.vput, len(g.vars))
	}
	nloc, err := g.AllocNodes(len(def.Node))
	if err != nil {
		return 0, err
	}
	vloc, err := g.AllocVars(def.Vars)
	if err != nil {
		return 0, err
	}

	adjust := func(p Port) Port {
		switch {
		case p.IsNode():
			return NewPort(p.Tag(), nloc+p.Val())
		case p.Tag() == TagVar:
			return NewPort(TagVar, vloc+p.Val())
		default:
			return p
		}
	}

	for i, pair := range def.Node {
		g.node[nloc+uint32(i)] = NewPair(adjust(pair.Fst()), adjust(pair.Snd()))
	}
	for _, rx := range def.Rbag {
		g.rbag = append(g.rbag, NewPair(adjust(rx.Fst()), adjust(rx.Snd())))
	}
	return adjust(def.Root), nil
}

// PushRedex adds a redex to the bag.
func (g *GNet) PushRedex(rx Pair) {
	g.rbag = append(g.rbag, rx)
}

// Redexes returns the pending redexes.
func (g *GNet) Redexes() []Pair {
	return g.rbag
}

// TakeRedexes empties the bag and returns its former contents.
func (g *GNet) TakeRedexes() []Pair {
	rbag := g.rbag
	g.rbag = nil
	return rbag
}

// CountInteractions adds n to the interaction counter. Safe for concurrent use.
func (g *GNet) CountInteractions(n uint64) {
	g.itrs.Add(n)
}

// Interactions returns the interaction counter.
func (g *GNet) Interactions() uint64 {
	return g.itrs.Load()
}

// Show dumps the used part of the memory, one slot per line.
func (g *GNet) Show() string {
	var sb strings.Builder
	sb.WriteString("NODE | PORT-1      | PORT-2\n")
	for i := uint32(0); i < g.nput; i++ {
		pair := g.node[i]
		if pair == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%07X | %-11s | %s\n", i, pair.Fst(), pair.Snd())
	}
	sb.WriteString("VARS | VALUE\n")
	if g.root != NonePort {
		fmt.Fprintf(&sb, "%7s | %s\n", "ROOT", g.root)
	}
	for i := uint32(1); i < g.vput; i++ {
		if v := g.vars[i]; v != NonePort && v != 0 {
			fmt.Fprintf(&sb, "%07X | %s\n", i, v)
		}
	}
	if len(g.rbag) > 0 {
		sb.WriteString("RBAG | FST-PORT    | SND-PORT\n")
		for i, rx := range g.rbag {
			fmt.Fprintf(&sb, "%07X | %-11s | %s\n", i, rx.Fst(), rx.Snd())
		}
	}
	return sb.String()
}
