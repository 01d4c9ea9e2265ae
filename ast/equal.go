package ast

// Equal reports whether two nets have the same root and redexes.
// Arena layout does not matter, only the trees.
func (n *Net) Equal(other *Net) bool {
	return n.equal(other, nil)
}

// EqualRenamed is Equal up to a consistent one-to-one renaming of variables.
func (n *Net) EqualRenamed(other *Net) bool {
	return n.equal(other, &renaming{fwd: map[string]string{}, bwd: map[string]string{}})
}

func (n *Net) equal(other *Net, ren *renaming) bool {
	if len(n.Rbag) != len(other.Rbag) {
		return false
	}
	if !treeEqual(n, n.Root, other, other.Root, ren) {
		return false
	}
	for i, rx := range n.Rbag {
		orx := other.Rbag[i]
		if rx.Par != orx.Par ||
			!treeEqual(n, rx.Fst, other, orx.Fst, ren) ||
			!treeEqual(n, rx.Snd, other, orx.Snd, ren) {
			return false
		}
	}
	return true
}

type renaming struct {
	fwd map[string]string
	bwd map[string]string
}

func (r *renaming) bind(a, b string) bool {
	if got, ok := r.fwd[a]; ok {
		return got == b
	}
	if _, ok := r.bwd[b]; ok {
		return false
	}
	r.fwd[a] = b
	r.bwd[b] = a
	return true
}

func treeEqual(na *Net, a Tree, nb *Net, b Tree, ren *renaming) bool {
	x, y := na.nodes[a], nb.nodes[b]
	if x.Kind != y.Kind {
		return false
	}
	switch x.Kind {
	case KindVar:
		if ren != nil {
			return ren.bind(x.Name, y.Name)
		}
		return x.Name == y.Name
	case KindRef:
		return x.Name == y.Name
	case KindEra:
		return true
	case KindNum:
		return x.Num == y.Num
	default:
		return treeEqual(na, x.Fst, nb, y.Fst, ren) && treeEqual(na, x.Snd, nb, y.Snd, ren)
	}
}

// Equal reports whether two books define the same names, in the same order,
// to equal nets.
func (b *Book) Equal(other *Book) bool {
	if len(b.names) != len(other.names) {
		return false
	}
	for i, name := range b.names {
		if other.names[i] != name {
			return false
		}
		if !b.defs[name].Equal(other.defs[name]) {
			return false
		}
	}
	return true
}
