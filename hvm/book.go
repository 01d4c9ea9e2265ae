package hvm

import "fmt"

// Def is one compiled definition.
type Def struct {
	Name string
	Safe bool   // false when the definition contains a duplicator
	Root Port   // root port of the definition body
	Rbag []Pair // pending redexes
	Node []Pair // node array; node ports index into it
	Vars int    // number of distinct variables
}

// Book is an ordered list of compiled definitions. A definition's id is its
// index; "main" is always id 0.
type Book struct {
	Defs []*Def
}

// Lookup returns the id and definition with the given name.
func (b *Book) Lookup(name string) (uint32, *Def, bool) {
	for i, def := range b.Defs {
		if def.Name == name {
			return uint32(i), def, true
		}
	}
	return 0, nil, false
}

// Stats summarizes the size of a book.
type Stats struct {
	Defs    int
	Nodes   int
	Redexes int
	Vars    int
	Unsafe  int
}

// Stats returns size counters over all definitions.
func (b *Book) Stats() Stats {
	s := Stats{Defs: len(b.Defs)}
	for _, def := range b.Defs {
		s.Nodes += len(def.Node)
		s.Redexes += len(def.Rbag)
		s.Vars += def.Vars
		if !def.Safe {
			s.Unsafe++
		}
	}
	return s
}

// Validate checks that every port of the definition stays inside its own
// node and var arrays and that REF ports name one of ndefs definitions.
func (d *Def) Validate(ndefs int) error {
	check := func(p Port, where string) error {
		switch {
		case p.IsNode():
			if int(p.Val()) >= len(d.Node) {
				return fmt.Errorf("%s: %s: node %d out of range (%d nodes)", d.Name, where, p.Val(), len(d.Node))
			}
		case p.Tag() == TagVar:
			if int(p.Val()) >= d.Vars {
				return fmt.Errorf("%s: %s: var %d out of range (%d vars)", d.Name, where, p.Val(), d.Vars)
			}
		case p.Tag() == TagRef:
			if int(p.RefID()) >= ndefs {
				return fmt.Errorf("%s: %s: ref %d out of range (%d defs)", d.Name, where, p.RefID(), ndefs)
			}
		}
		return nil
	}

	if err := check(d.Root, "root"); err != nil {
		return err
	}
	for i, pair := range d.Node {
		where := fmt.Sprintf("node %d", i)
		if err := check(pair.Fst(), where); err != nil {
			return err
		}
		if err := check(pair.Snd(), where); err != nil {
			return err
		}
	}
	for i, rx := range d.Rbag {
		where := fmt.Sprintf("redex %d", i)
		if err := check(rx.Fst(), where); err != nil {
			return err
		}
		if err := check(rx.Snd(), where); err != nil {
			return err
		}
	}
	return nil
}
