package ast

import (
	"errors"
	"testing"

	"github.com/Neumenon/hvmc/hvm"
)

func mustParseBook(t *testing.T, src string) *Book {
	t.Helper()
	book, err := ParseBook(src)
	if err != nil {
		t.Fatalf("ParseBook failed: %v", err)
	}
	return book
}

func mustCompile(t *testing.T, src string) *hvm.Book {
	t.Helper()
	out, err := Compile(mustParseBook(t, src))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return out
}

func TestCompile_SelfLoop(t *testing.T) {
	out := mustCompile(t, "@main = (x x)")
	if len(out.Defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(out.Defs))
	}
	def := out.Defs[0]

	if def.Name != "main" {
		t.Errorf("Name = %q, want main", def.Name)
	}
	if def.Vars != 1 {
		t.Errorf("Vars = %d, want 1", def.Vars)
	}
	if len(def.Node) != 1 {
		t.Fatalf("expected 1 node, got %d", len(def.Node))
	}
	x := hvm.NewPort(hvm.TagVar, 0)
	if got := def.Node[0]; got.Fst() != x || got.Snd() != x {
		t.Errorf("node 0 = %s, want %s %s", got, x, x)
	}
	if want := hvm.NewPort(hvm.TagCon, 0); def.Root != want {
		t.Errorf("Root = %s, want %s", def.Root, want)
	}
	if len(def.Rbag) != 0 {
		t.Errorf("expected empty rbag, got %d", len(def.Rbag))
	}
	if !def.Safe {
		t.Error("expected safe definition")
	}
}

func TestCompile_Ids(t *testing.T) {
	out := mustCompile(t, `
		@foo = @bar
		@main = (@foo @bar)
		@bar = *
	`)

	want := []string{"main", "foo", "bar"}
	if len(out.Defs) != len(want) {
		t.Fatalf("expected %d defs, got %d", len(want), len(out.Defs))
	}
	for i, name := range want {
		if out.Defs[i].Name != name {
			t.Errorf("id %d = %s, want %s", i, out.Defs[i].Name, name)
		}
	}

	main := out.Defs[0]
	pair := main.Node[0]
	if pair.Fst() != hvm.NewPort(hvm.TagRef, 1) || pair.Snd() != hvm.NewPort(hvm.TagRef, 2) {
		t.Errorf("main node = %s, want REF 1 and REF 2", pair)
	}
	if out.Defs[1].Root != hvm.NewPort(hvm.TagRef, 2) {
		t.Errorf("foo root = %s, want REF 2", out.Defs[1].Root)
	}
}

func TestCompile_TextualOrder(t *testing.T) {
	out := mustCompile(t, "@main = @foo\n@foo = @bar\n@bar = *\n")
	for id, name := range []string{"main", "foo", "bar"} {
		got, _, ok := out.Lookup(name)
		if !ok || got != uint32(id) {
			t.Errorf("%s -> %d (found %v), want %d", name, got, ok, id)
		}
	}
}

func TestCompile_MissingEntryPoint(t *testing.T) {
	out, err := Compile(mustParseBook(t, "@foo = *"))
	if !errors.Is(err, ErrMissingEntryPoint) {
		t.Fatalf("expected ErrMissingEntryPoint, got %v", err)
	}
	if out != nil {
		t.Error("expected no output on failure")
	}
}

func TestCompile_UnboundReference(t *testing.T) {
	out, err := Compile(mustParseBook(t, "@main = @undefined"))
	var ue *UnboundReferenceError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnboundReferenceError, got %v", err)
	}
	if ue.Name != "undefined" || ue.In != "main" {
		t.Errorf("error = %+v, want undefined in main", ue)
	}
	if out != nil {
		t.Error("expected no output on failure")
	}
}

func TestCompile_Safety(t *testing.T) {
	tests := []struct {
		name string
		net  string
		safe bool
	}{
		{"no nodes", "*", true},
		{"con", "(a a)", true},
		{"opr and swi", "$(a ?(b (a b)))", true},
		{"dup at root", "{a a}", false},
		{"nested dup", "(a {b (a b)})", false},
		{"dup in redex", "a & * ~ {a *}", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustCompile(t, "@main = "+tt.net)
			if got := out.Defs[0].Safe; got != tt.safe {
				t.Errorf("Safe = %v, want %v", got, tt.safe)
			}
		})
	}
}

func TestCompile_NodeOrder(t *testing.T) {
	out := mustCompile(t, "@main = (a {b $(a b)})")
	def := out.Defs[0]
	if len(def.Node) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(def.Node))
	}
	// Parents are reserved before their children.
	if def.Root != hvm.NewPort(hvm.TagCon, 0) {
		t.Errorf("Root = %s, want CON:0", def.Root)
	}
	if got := def.Node[0].Snd(); got != hvm.NewPort(hvm.TagDup, 1) {
		t.Errorf("node 0 snd = %s, want DUP:1", got)
	}
	if got := def.Node[1].Snd(); got != hvm.NewPort(hvm.TagOpr, 2) {
		t.Errorf("node 1 snd = %s, want OPR:2", got)
	}
	if def.Vars != 2 {
		t.Errorf("Vars = %d, want 2", def.Vars)
	}
}

func TestCompile_VarsArePerNet(t *testing.T) {
	out := mustCompile(t, "@main = (a b) & @foo ~ (a b)\n@foo = (a a)\n")
	if out.Defs[0].Vars != 2 || out.Defs[1].Vars != 1 {
		t.Errorf("Vars = %d, %d; want 2, 1", out.Defs[0].Vars, out.Defs[1].Vars)
	}
	if got := out.Defs[1].Node[0].Fst(); got != hvm.NewPort(hvm.TagVar, 0) {
		t.Errorf("foo's first var = %s, want VAR:0", got)
	}
}

func TestCompile_Redexes(t *testing.T) {
	out := mustCompile(t, "@main = a & @foo ~ a &! @foo ~ *\n@foo = *\n")
	rbag := out.Defs[0].Rbag
	if len(rbag) != 2 {
		t.Fatalf("expected 2 redexes, got %d", len(rbag))
	}
	if rbag[0].ParFlag() {
		t.Error("first redex should not be parallel")
	}
	if !rbag[1].ParFlag() {
		t.Error("second redex should be parallel")
	}
	if id := rbag[1].Fst().RefID(); id != 1 {
		t.Errorf("parallel ref id = %d, want 1", id)
	}
	if rbag[0].Snd() != hvm.NewPort(hvm.TagVar, 0) {
		t.Errorf("first redex snd = %s, want VAR:0", rbag[0].Snd())
	}
}

func TestCompile_Numbers(t *testing.T) {
	out := mustCompile(t, "@main = ([*2] -7)")
	pair := out.Defs[0].Node[0]
	if got := hvm.Numb(pair.Fst().Val()); got.String() != "[*0x0000002]" {
		t.Errorf("fst = %s, want [*0x0000002]", got)
	}
	if got := hvm.Numb(pair.Snd().Val()); got.I24() != -7 {
		t.Errorf("snd = %s, want -7", got)
	}
}

func TestCompile_Serializable(t *testing.T) {
	out := mustCompile(t, "@main = (a {a @foo})\n@foo = $(1 2)\n")
	data, err := out.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	back, err := hvm.UnmarshalBook(data)
	if err != nil {
		t.Fatalf("UnmarshalBook failed: %v", err)
	}
	if len(back.Defs) != 2 || back.Defs[1].Name != "foo" || back.Defs[0].Safe {
		t.Errorf("unexpected book after round trip: %+v", back.Defs)
	}
}
