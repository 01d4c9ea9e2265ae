package ast

import (
	"github.com/Neumenon/hvmc/hvm"
)

// MainName is the entry point every compiled book must define.
const MainName = "main"

// Compile builds the graph form of a book. "main" gets id 0 and the other
// definitions follow in book order. On error nothing is returned.
func Compile(book *Book) (*hvm.Book, error) {
	if _, ok := book.Get(MainName); !ok {
		return nil, ErrMissingEntryPoint
	}

	ids := make(map[string]uint32, book.Len())
	order := make([]string, 0, book.Len())
	ids[MainName] = 0
	order = append(order, MainName)
	for _, name := range book.names {
		if name == MainName {
			continue
		}
		ids[name] = uint32(len(order))
		order = append(order, name)
	}

	out := &hvm.Book{Defs: make([]*hvm.Def, 0, len(order))}
	for _, name := range order {
		net, _ := book.Get(name)
		def, err := compileNet(name, net, ids)
		if err != nil {
			return nil, err
		}
		out.Defs = append(out.Defs, def)
	}
	return out, nil
}

// builder compiles one net. Var ids are local to the net.
type builder struct {
	net  *Net
	def  *hvm.Def
	ids  map[string]uint32
	vars map[string]uint32
}

func compileNet(name string, net *Net, ids map[string]uint32) (*hvm.Def, error) {
	b := &builder{
		net:  net,
		def:  &hvm.Def{Name: name, Safe: true},
		ids:  ids,
		vars: make(map[string]uint32),
	}

	root, err := b.tree(net.Root)
	if err != nil {
		return nil, err
	}
	b.def.Root = root

	for _, rx := range net.Rbag {
		fst, err := b.tree(rx.Fst)
		if err != nil {
			return nil, err
		}
		snd, err := b.tree(rx.Snd)
		if err != nil {
			return nil, err
		}
		pair := hvm.NewPair(fst, snd)
		if rx.Par {
			pair = pair.WithParFlag()
		}
		b.def.Rbag = append(b.def.Rbag, pair)
	}
	return b.def, nil
}

func (b *builder) tree(t Tree) (hvm.Port, error) {
	node := b.net.Node(t)
	switch node.Kind {
	case KindVar:
		id, ok := b.vars[node.Name]
		if !ok {
			id = uint32(b.def.Vars)
			b.vars[node.Name] = id
			b.def.Vars++
		}
		return hvm.NewPort(hvm.TagVar, id), nil

	case KindRef:
		id, ok := b.ids[node.Name]
		if !ok {
			return 0, &UnboundReferenceError{Name: node.Name, In: b.def.Name}
		}
		return hvm.NewPort(hvm.TagRef, id), nil

	case KindEra:
		return hvm.NewPort(hvm.TagEra, 0), nil

	case KindNum:
		return hvm.NewPort(hvm.TagNum, uint32(node.Num)), nil

	default:
		if node.Kind == KindDup {
			b.def.Safe = false
		}
		// Reserve the slot first so children always land after their parent.
		loc := uint32(len(b.def.Node))
		b.def.Node = append(b.def.Node, 0)
		fst, err := b.tree(node.Fst)
		if err != nil {
			return 0, err
		}
		snd, err := b.tree(node.Snd)
		if err != nil {
			return 0, err
		}
		b.def.Node[loc] = hvm.NewPair(fst, snd)
		return hvm.NewPort(node.Kind.Tag(), loc), nil
	}
}
