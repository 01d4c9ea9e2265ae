package ast

import (
	"errors"
	"math"
	"testing"

	"github.com/Neumenon/hvmc/hvm"
)

func TestParseNumb_Literals(t *testing.T) {
	tests := []struct {
		input string
		want  hvm.Numb
		show  string
	}{
		{"0", hvm.NewU24(0), "0"},
		{"42", hvm.NewU24(42), "42"},
		{"0x10", hvm.NewU24(16), "16"},
		{"0b101", hvm.NewU24(5), "5"},
		{"16777215", hvm.NewU24(0xFFFFFF), "16777215"},
		{"+5", hvm.NewI24(5), "+5"},
		{"-5", hvm.NewI24(-5), "-5"},
		{"+0", hvm.NewI24(0), "+0"},
		{"-0x10", hvm.NewI24(-16), "-16"},
		{"1.5", hvm.NewF24(1.5), "1.5"},
		{"-2.25", hvm.NewF24(-2.25), "-2.25"},
		{"1.0", hvm.NewF24(1), "1.0"},
		{"+inf", hvm.NewF24(float32(math.Inf(1))), "+inf"},
		{"-inf", hvm.NewF24(float32(math.Inf(-1))), "-inf"},
		{"inf", hvm.NewF24(float32(math.Inf(1))), "+inf"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseNumb(tt.input)
			if err != nil {
				t.Fatalf("ParseNumb failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseNumb(%q) = %#x, want %#x", tt.input, uint32(got), uint32(tt.want))
			}
			if s := got.String(); s != tt.show {
				t.Errorf("String() = %q, want %q", s, tt.show)
			}
		})
	}
}

func TestParseNumb_NaN(t *testing.T) {
	for _, input := range []string{"NaN", "+NaN", "-NaN"} {
		n, err := ParseNumb(input)
		if err != nil {
			t.Fatalf("ParseNumb(%q) failed: %v", input, err)
		}
		if n.Type() != hvm.TyF24 {
			t.Errorf("ParseNumb(%q): type %d, want f24", input, n.Type())
		}
		if got := n.String(); got != "+NaN" {
			t.Errorf("ParseNumb(%q).String() = %q, want +NaN", input, got)
		}
	}
}

func TestParseNumb_Symbols(t *testing.T) {
	tests := []struct {
		input string
		want  hvm.Numb
	}{
		{"[u24]", hvm.NewSym(hvm.TyU24)},
		{"[i24]", hvm.NewSym(hvm.TyI24)},
		{"[f24]", hvm.NewSym(hvm.TyF24)},
		{"[+]", hvm.NewSym(hvm.OpAdd)},
		{"[-]", hvm.NewSym(hvm.OpSub)},
		{"[:-]", hvm.NewSym(hvm.FpSub)},
		{"[*]", hvm.NewSym(hvm.OpMul)},
		{"[/]", hvm.NewSym(hvm.OpDiv)},
		{"[:/]", hvm.NewSym(hvm.FpDiv)},
		{"[%]", hvm.NewSym(hvm.OpRem)},
		{"[:%]", hvm.NewSym(hvm.FpRem)},
		{"[=]", hvm.NewSym(hvm.OpEq)},
		{"[!]", hvm.NewSym(hvm.OpNeq)},
		{"[<<]", hvm.NewSym(hvm.OpShl)},
		{"[:<<]", hvm.NewSym(hvm.FpShl)},
		{"[>>]", hvm.NewSym(hvm.OpShr)},
		{"[:>>]", hvm.NewSym(hvm.FpShr)},
		{"[<]", hvm.NewSym(hvm.OpLt)},
		{"[>]", hvm.NewSym(hvm.OpGt)},
		{"[&]", hvm.NewSym(hvm.OpAnd)},
		{"[|]", hvm.NewSym(hvm.OpOr)},
		{"[^]", hvm.NewSym(hvm.OpXor)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseNumb(tt.input)
			if err != nil {
				t.Fatalf("ParseNumb failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseNumb(%q) = %#x, want %#x", tt.input, uint32(got), uint32(tt.want))
			}
			if s := got.String(); s != tt.input {
				t.Errorf("String() = %q, want %q", s, tt.input)
			}
		})
	}
}

func TestParseNumb_Partial(t *testing.T) {
	bare, err := ParseNumb("[*]")
	if err != nil {
		t.Fatalf("ParseNumb failed: %v", err)
	}
	partial, err := ParseNumb("[*2]")
	if err != nil {
		t.Fatalf("ParseNumb failed: %v", err)
	}
	if bare == partial {
		t.Fatal("expected [*2] to differ from [*]")
	}
	if partial.Type() != hvm.OpMul || partial.U24() != 2 {
		t.Errorf("[*2] = type %d payload %d", partial.Type(), partial.U24())
	}

	// The rendering parses back to the same value.
	again, err := ParseNumb(partial.String())
	if err != nil {
		t.Fatalf("reparse of %q failed: %v", partial.String(), err)
	}
	if again != partial {
		t.Errorf("reparse of %q = %#x, want %#x", partial.String(), uint32(again), uint32(partial))
	}
	if bare.String() == partial.String() {
		t.Errorf("both render as %q", bare.String())
	}
}

func TestParseNumb_PartialFloatOperand(t *testing.T) {
	n, err := ParseNumb("[+ 1.5]")
	if err != nil {
		t.Fatalf("ParseNumb failed: %v", err)
	}
	want := hvm.Partial(hvm.NewSym(hvm.OpAdd), hvm.NewF24(1.5))
	if n != want {
		t.Errorf("got %#x, want %#x", uint32(n), uint32(want))
	}
	again, err := ParseNumb(n.String())
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if again != n {
		t.Errorf("reparse of %q changed the value", n.String())
	}
}

func TestParseNumb_Errors(t *testing.T) {
	for _, input := range []string{"", "0xZZ", "12ab", "[u24", "[i24 ]", "[@]", "[+ 1", "1 2", "1.2.3"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseNumb(input)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("ParseNumb(%q): expected SyntaxError, got %v", input, err)
			}
		})
	}
}

// Every representable u24, i24 and f24 value survives show and reparse.
func TestNumb_ShowParseExact(t *testing.T) {
	var values []hvm.Numb
	for _, v := range []uint32{0, 1, 7, 255, 1 << 20, 0xFFFFFF} {
		values = append(values, hvm.NewU24(v))
	}
	for _, v := range []int32{0, 1, -1, 1000, -1000, 1<<23 - 1, -(1 << 23)} {
		values = append(values, hvm.NewI24(v))
	}
	for _, v := range []float32{0, 0.5, -0.75, 3.140625, 1e-5, 6.5e20, -1e30, 123456, float32(math.Inf(1)), float32(math.Inf(-1))} {
		values = append(values, hvm.NewF24(v))
	}

	for _, n := range values {
		s := n.String()
		got, err := ParseNumb(s)
		if err != nil {
			t.Errorf("ParseNumb(%q) failed: %v", s, err)
			continue
		}
		if got != n {
			t.Errorf("ParseNumb(%q) = %#x, want %#x", s, uint32(got), uint32(n))
		}
	}
}
