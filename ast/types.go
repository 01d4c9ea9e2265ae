package ast

import (
	"fmt"

	"github.com/Neumenon/hvmc/hvm"
)

// Kind is the variant of a tree node.
type Kind uint8

const (
	KindVar Kind = iota // variable: name
	KindRef             // reference to a definition: @name
	KindEra             // eraser: *
	KindNum             // number
	KindCon             // constructor: (fst snd)
	KindDup             // duplicator: {fst snd}
	KindOpr             // operation: $(fst snd)
	KindSwi             // switch: ?(fst snd)
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindRef:
		return "ref"
	case KindEra:
		return "era"
	case KindNum:
		return "num"
	case KindCon:
		return "con"
	case KindDup:
		return "dup"
	case KindOpr:
		return "opr"
	case KindSwi:
		return "swi"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsBinary reports whether nodes of this kind have two children.
func (k Kind) IsBinary() bool {
	return k >= KindCon && k <= KindSwi
}

// Tag returns the port tag nodes of this kind compile to.
func (k Kind) Tag() hvm.Tag {
	switch k {
	case KindVar:
		return hvm.TagVar
	case KindRef:
		return hvm.TagRef
	case KindEra:
		return hvm.TagEra
	case KindNum:
		return hvm.TagNum
	case KindCon:
		return hvm.TagCon
	case KindDup:
		return hvm.TagDup
	case KindOpr:
		return hvm.TagOpr
	default:
		return hvm.TagSwi
	}
}

// kindOf maps a node tag back to its kind.
func kindOf(tag hvm.Tag) Kind {
	switch tag {
	case hvm.TagCon:
		return KindCon
	case hvm.TagDup:
		return KindDup
	case hvm.TagOpr:
		return KindOpr
	default:
		return KindSwi
	}
}

// Tree is a handle to a node in the arena of the Net that created it.
type Tree int32

// Node is one arena slot.
type Node struct {
	Kind Kind
	Name string   // KindVar, KindRef
	Num  hvm.Numb // KindNum
	Fst  Tree     // binary kinds
	Snd  Tree     // binary kinds
}

// Redex is a pending interaction between two trees.
type Redex struct {
	Par bool // eligible for parallel reduction
	Fst Tree
	Snd Tree
}

// Net is one definition body: a root tree and its pending redexes. All trees
// of a net live in the net's own arena and are addressed by Tree handles.
type Net struct {
	nodes []Node
	Root  Tree
	Rbag  []Redex
}

// NewNet returns an empty net. Its Root must be set before use.
func NewNet() *Net {
	return &Net{}
}

// Node returns the node behind a handle.
func (n *Net) Node(t Tree) Node {
	return n.nodes[t]
}

// Len returns the number of arena slots.
func (n *Net) Len() int {
	return len(n.nodes)
}

func (n *Net) push(node Node) Tree {
	n.nodes = append(n.nodes, node)
	return Tree(len(n.nodes) - 1)
}

// Var adds a variable occurrence.
func (n *Net) Var(name string) Tree { return n.push(Node{Kind: KindVar, Name: name}) }

// Ref adds a reference to a definition.
func (n *Net) Ref(name string) Tree { return n.push(Node{Kind: KindRef, Name: name}) }

// Era adds an eraser.
func (n *Net) Era() Tree { return n.push(Node{Kind: KindEra}) }

// Num adds a number.
func (n *Net) Num(v hvm.Numb) Tree { return n.push(Node{Kind: KindNum, Num: v}) }

// Con adds a constructor.
func (n *Net) Con(fst, snd Tree) Tree { return n.Binary(KindCon, fst, snd) }

// Dup adds a duplicator.
func (n *Net) Dup(fst, snd Tree) Tree { return n.Binary(KindDup, fst, snd) }

// Opr adds a numeric operation.
func (n *Net) Opr(fst, snd Tree) Tree { return n.Binary(KindOpr, fst, snd) }

// Swi adds a numeric switch.
func (n *Net) Swi(fst, snd Tree) Tree { return n.Binary(KindSwi, fst, snd) }

// Binary adds a node of a binary kind.
func (n *Net) Binary(kind Kind, fst, snd Tree) Tree {
	return n.push(Node{Kind: kind, Fst: fst, Snd: snd})
}

// AddRedex appends a pending interaction.
func (n *Net) AddRedex(par bool, fst, snd Tree) {
	n.Rbag = append(n.Rbag, Redex{Par: par, Fst: fst, Snd: snd})
}

// Book is the named collection of nets forming a program. Names keep the
// order in which they were first defined; redefining a name replaces its
// net in place.
type Book struct {
	names []string
	defs  map[string]*Net
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{defs: make(map[string]*Net)}
}

// Define binds name to net and reports whether an earlier net was replaced.
func (b *Book) Define(name string, net *Net) bool {
	if b.defs == nil {
		b.defs = make(map[string]*Net)
	}
	_, replaced := b.defs[name]
	if !replaced {
		b.names = append(b.names, name)
	}
	b.defs[name] = net
	return replaced
}

// Get returns the net bound to name.
func (b *Book) Get(name string) (*Net, bool) {
	net, ok := b.defs[name]
	return net, ok
}

// Names returns definition names in book order.
func (b *Book) Names() []string {
	return append([]string(nil), b.names...)
}

// Len returns the number of definitions.
func (b *Book) Len() int {
	return len(b.names)
}
