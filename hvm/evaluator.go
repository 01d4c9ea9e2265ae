package hvm

import (
	"context"
	"fmt"
)

// Evaluator reduces a net. When Evaluate returns, the net must be quiescent:
// no concurrent writer may touch it, and every chain of variable bindings
// must end in a non-VAR port or an unbound var.
type Evaluator interface {
	Evaluate(ctx context.Context, net *GNet, book *Book) error
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, net *GNet, book *Book) error

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, net *GNet, book *Book) error {
	return f(ctx, net, book)
}

// Boot binds the root to an unbound var and pushes the redex that calls
// the entry definition (id 0) into it.
func Boot(net *GNet) {
	net.VarsCreate(RootPort.Val(), NonePort)
	net.PushRedex(NewPair(NewPort(TagRef, 0), RootPort))
}

// Loader is the built-in evaluator. It expands every REF ~ VAR redex present
// in the bag when it starts, binding the var to the expanded definition, and
// leaves all other redexes pending. After Boot this instantiates main into
// the root without reducing anything.
type Loader struct{}

// Evaluate implements Evaluator.
func (Loader) Evaluate(ctx context.Context, net *GNet, book *Book) error {
	var pending []Pair
	for _, rx := range net.TakeRedexes() {
		if err := ctx.Err(); err != nil {
			return err
		}

		ref, v := rx.Fst(), rx.Snd()
		if ref.Tag() != TagRef {
			ref, v = v, ref
		}
		if ref.Tag() != TagRef || v.Tag() != TagVar || net.Enter(v) != v {
			pending = append(pending, rx)
			continue
		}

		fid := ref.RefID()
		if int(fid) >= len(book.Defs) {
			return fmt.Errorf("hvm: redex calls unknown definition %d", fid)
		}
		root, err := net.Expand(book.Defs[fid])
		if err != nil {
			return err
		}
		net.VarsCreate(v.Val(), root)
		net.CountInteractions(1)
	}

	// Expansion pushed the definitions' own redexes; keep the untouched ones first.
	net.rbag = append(pending, net.rbag...)
	return nil
}
