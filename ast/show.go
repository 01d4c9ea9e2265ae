package ast

import "strings"

// ShowTree renders the tree at t in canonical notation.
func (n *Net) ShowTree(t Tree) string {
	var b strings.Builder
	n.writeTree(&b, t)
	return b.String()
}

func (n *Net) writeTree(b *strings.Builder, t Tree) {
	node := n.nodes[t]
	switch node.Kind {
	case KindVar:
		b.WriteString(node.Name)
	case KindRef:
		b.WriteByte('@')
		b.WriteString(node.Name)
	case KindEra:
		b.WriteByte('*')
	case KindNum:
		b.WriteString(node.Num.String())
	default:
		open, close := delimiters(node.Kind)
		b.WriteString(open)
		n.writeTree(b, node.Fst)
		b.WriteByte(' ')
		n.writeTree(b, node.Snd)
		b.WriteString(close)
	}
}

func delimiters(k Kind) (string, string) {
	switch k {
	case KindCon:
		return "(", ")"
	case KindDup:
		return "{", "}"
	case KindOpr:
		return "$(", ")"
	default:
		return "?(", ")"
	}
}

// String renders the root followed by each redex.
func (n *Net) String() string {
	var b strings.Builder
	n.writeNet(&b)
	return b.String()
}

func (n *Net) writeNet(b *strings.Builder) {
	n.writeTree(b, n.Root)
	for _, rx := range n.Rbag {
		b.WriteString(" &")
		if rx.Par {
			b.WriteByte('!')
		} else {
			b.WriteByte(' ')
		}
		n.writeTree(b, rx.Fst)
		b.WriteString(" ~ ")
		n.writeTree(b, rx.Snd)
	}
}

// String renders one "@name = net" line per definition in book order.
func (b *Book) String() string {
	var sb strings.Builder
	for _, name := range b.names {
		sb.WriteByte('@')
		sb.WriteString(name)
		sb.WriteString(" = ")
		b.defs[name].writeNet(&sb)
		sb.WriteByte('\n')
	}
	return sb.String()
}
