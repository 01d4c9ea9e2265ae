package ast

import (
	"testing"

	"github.com/Neumenon/hvmc/hvm"
)

func TestShow_Book(t *testing.T) {
	book := mustParseBook(t, `
		// entry
		@main = a
		  & @fun ~ (8 a)
		@fun = ({a b} d)
		  &! @fun ~ (a $([+] $(c d)))
		  &!@fun ~ (b c)
	`)

	want := "@main = a & @fun ~ (8 a)\n" +
		"@fun = ({a b} d) &!@fun ~ (a $([+] $(c d))) &!@fun ~ (b c)\n"
	if got := book.String(); got != want {
		t.Errorf("String() mismatch\n  got:  %q\n  want: %q", got, want)
	}
}

func TestShow_Built(t *testing.T) {
	net := NewNet()
	x := net.Var("x")
	num := net.Num(hvm.NewI24(-3))
	op := net.Opr(num, net.Var("y"))
	net.Root = net.Swi(net.Con(x, net.Era()), net.Dup(op, net.Ref("f")))
	net.AddRedex(true, net.Ref("g"), net.Var("x"))
	net.AddRedex(false, net.Var("y"), net.Num(hvm.NewSym(hvm.OpAdd)))

	want := "?((x *) {$(-3 y) @f}) &!@g ~ x & y ~ [+]"
	if got := net.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := net.ShowTree(op); got != "$(-3 y)" {
		t.Errorf("ShowTree = %q, want $(-3 y)", got)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b           string
		equal, renamed bool
	}{
		{"(a a)", "(a a)", true, true},
		{"(a a)", "(b b)", false, true},
		{"(a b)", "(b a)", false, true},
		{"(a b)", "(a a)", false, false},
		{"(a a)", "{a a}", false, false},
		{"(1 @f)", "(1 @g)", false, false},
		{"a & @f ~ a", "b & @f ~ b", false, true},
		{"a & @f ~ a", "a &!@f ~ a", false, false},
		{"a", "a & * ~ *", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a, err := ParseNet(tt.a)
			if err != nil {
				t.Fatalf("ParseNet failed: %v", err)
			}
			b, err := ParseNet(tt.b)
			if err != nil {
				t.Fatalf("ParseNet failed: %v", err)
			}
			if got := a.Equal(b); got != tt.equal {
				t.Errorf("Equal = %v, want %v", got, tt.equal)
			}
			if got := a.EqualRenamed(b); got != tt.renamed {
				t.Errorf("EqualRenamed = %v, want %v", got, tt.renamed)
			}
		})
	}
}
