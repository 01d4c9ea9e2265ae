package ast

import (
	"fmt"
	"math"

	"github.com/Neumenon/hvmc/hvm"
)

// Snapshot is the read-only view of graph memory that readback needs.
// *hvm.GNet implements it. The graph must not change during readback.
type Snapshot interface {
	// Enter follows one variable binding, returning p itself when p is
	// not a VAR or is unbound.
	Enter(p hvm.Port) hvm.Port
	// NodeLoad returns the pair stored at a node index, or false when the
	// index is outside node memory.
	NodeLoad(loc uint32) (hvm.Pair, bool)
}

// DefaultMaxHops bounds the work of one readback.
const DefaultMaxHops = 1 << 24

// sizedSnapshot is a Snapshot that knows how much memory it has.
// *hvm.GNet implements it.
type sizedSnapshot interface {
	Capacity() (nodes, vars int)
}

// ReadbackOptions configures readback.
type ReadbackOptions struct {
	// MaxHops caps variable resolutions plus node visits. A graph whose
	// bindings form a cycle fails with ErrUnrepresentable instead of
	// looping. Zero means DefaultMaxHops, raised to cover every node and
	// var of the snapshot when it reports its capacity.
	MaxHops int
}

// NamesOf builds the id to name table of a compiled book.
func NamesOf(book *hvm.Book) map[uint32]string {
	names := make(map[uint32]string, len(book.Defs))
	for i, def := range book.Defs {
		names[uint32(i)] = def.Name
	}
	return names
}

// Readback reconstructs the tree reachable from root. The returned net has
// no redexes.
func Readback(snap Snapshot, root hvm.Port, names map[uint32]string, opts ReadbackOptions) (*Net, error) {
	r := newReader(snap, names, opts)
	t, err := r.tree(root)
	if err != nil {
		return nil, err
	}
	r.net.Root = t
	return r.net, nil
}

// ReadbackNet reads back the value bound to the root of an evaluated net.
func ReadbackNet(g *hvm.GNet, names map[uint32]string) (*Net, error) {
	return Readback(g, hvm.RootPort, names, ReadbackOptions{})
}

// Decompile rebuilds the net of a compiled definition, redexes included.
// Variables are named after their ids.
func Decompile(def *hvm.Def, names map[uint32]string) (*Net, error) {
	if err := def.Validate(math.MaxUint32 >> 3); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrepresentable, err)
	}

	r := newReader(defSnapshot{def}, names, ReadbackOptions{})
	root, err := r.tree(def.Root)
	if err != nil {
		return nil, err
	}
	r.net.Root = root

	for _, rx := range def.Rbag {
		fst, err := r.tree(rx.Fst())
		if err != nil {
			return nil, err
		}
		snd, err := r.tree(rx.Snd())
		if err != nil {
			return nil, err
		}
		r.net.AddRedex(rx.ParFlag(), fst, snd)
	}
	return r.net, nil
}

// defSnapshot views a single definition as memory with every var unbound.
type defSnapshot struct {
	def *hvm.Def
}

func (s defSnapshot) Enter(p hvm.Port) hvm.Port { return p }

func (s defSnapshot) NodeLoad(loc uint32) (hvm.Pair, bool) {
	if int(loc) >= len(s.def.Node) {
		return 0, false
	}
	return s.def.Node[loc], true
}

func (s defSnapshot) Capacity() (nodes, vars int) { return len(s.def.Node), s.def.Vars }

type reader struct {
	snap  Snapshot
	names map[uint32]string
	net   *Net
	hops  int
}

func newReader(snap Snapshot, names map[uint32]string, opts ReadbackOptions) *reader {
	return &reader{snap: snap, names: names, net: NewNet(), hops: maxHops(snap, opts)}
}

// maxHops is the readback budget. A well-formed graph costs one hop per port
// visited and one per var entered, so twice the memory size covers it.
func maxHops(snap Snapshot, opts ReadbackOptions) int {
	if opts.MaxHops > 0 {
		return opts.MaxHops
	}
	hops := DefaultMaxHops
	if sized, ok := snap.(sizedSnapshot); ok {
		nodes, vars := sized.Capacity()
		if need := 2*(nodes+vars) + 1; need > hops {
			hops = need
		}
	}
	return hops
}

func (r *reader) step(p hvm.Port) error {
	r.hops--
	if r.hops < 0 {
		return &UnrepresentableError{Port: p, Reason: "resolution limit exceeded"}
	}
	return nil
}

func (r *reader) tree(p hvm.Port) (Tree, error) {
	if err := r.step(p); err != nil {
		return 0, err
	}

	// Resolve variables to a fixed point.
	for p.Tag() == hvm.TagVar {
		next := r.snap.Enter(p)
		if next == p {
			break
		}
		if err := r.step(p); err != nil {
			return 0, err
		}
		p = next
	}

	if p == hvm.NonePort {
		return 0, &UnrepresentableError{Port: p, Reason: "empty port"}
	}

	switch tag := p.Tag(); tag {
	case hvm.TagVar:
		return r.net.Var(fmt.Sprintf("v%x", p.Val())), nil

	case hvm.TagRef:
		name, ok := r.names[p.RefID()]
		if !ok {
			return 0, &UnrepresentableError{Port: p, Reason: "unknown definition id"}
		}
		return r.net.Ref(name), nil

	case hvm.TagEra:
		return r.net.Era(), nil

	case hvm.TagNum:
		return r.net.Num(hvm.Numb(p.Val())), nil

	case hvm.TagCon, hvm.TagDup, hvm.TagOpr, hvm.TagSwi:
		pair, ok := r.snap.NodeLoad(p.Val())
		if !ok {
			return 0, &UnrepresentableError{Port: p, Reason: "node out of range"}
		}
		fst, err := r.tree(pair.Fst())
		if err != nil {
			return 0, err
		}
		snd, err := r.tree(pair.Snd())
		if err != nil {
			return 0, err
		}
		return r.net.Binary(kindOf(tag), fst, snd), nil

	default:
		return 0, &UnrepresentableError{Port: p, Reason: "unknown tag"}
	}
}
