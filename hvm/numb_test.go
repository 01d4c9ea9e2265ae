package hvm

import (
	"math"
	"testing"
)

// ============================================================
// Packing
// ============================================================

func TestNumb_U24RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 42, 0x7FFFFF, 0xFFFFFF} {
		n := NewU24(v)
		if n.Type() != TyU24 {
			t.Errorf("NewU24(%d): type %d, want %d", v, n.Type(), TyU24)
		}
		if got := n.U24(); got != v {
			t.Errorf("NewU24(%d).U24() = %d", v, got)
		}
	}
}

func TestNumb_U24Truncates(t *testing.T) {
	if got := NewU24(0x1000001).U24(); got != 1 {
		t.Errorf("expected 24-bit wrap to 1, got %d", got)
	}
}

func TestNumb_I24RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 100, -100, 1<<23 - 1, -(1 << 23)} {
		n := NewI24(v)
		if n.Type() != TyI24 {
			t.Errorf("NewI24(%d): type %d", v, n.Type())
		}
		if got := n.I24(); got != v {
			t.Errorf("NewI24(%d).I24() = %d", v, got)
		}
	}
}

func TestNumb_F24RoundTrip(t *testing.T) {
	// Values with at most 15 explicit mantissa bits survive exactly.
	for _, v := range []float32{0, 1, -1, 0.5, 1.5, -2.25, 1024, 3.140625, float32(math.Inf(1)), float32(math.Inf(-1))} {
		n := NewF24(v)
		if n.Type() != TyF24 {
			t.Errorf("NewF24(%v): type %d", v, n.Type())
		}
		if got := n.F24(); got != v {
			t.Errorf("NewF24(%v).F24() = %v", v, got)
		}
	}
}

func TestNumb_F24NaN(t *testing.T) {
	got := NewF24(float32(math.NaN())).F24()
	if got == got {
		t.Errorf("expected NaN, got %v", got)
	}
}

func TestNumb_F24RoundsToNearestEven(t *testing.T) {
	base := math.Float32bits(1.5)
	tests := []struct {
		name string
		lost uint32
		want uint32 // expected 24-bit payload
	}{
		{"below half", 0x7F, base >> 8},
		{"half even stays", 0x80, base >> 8},
		{"above half", 0x81, base>>8 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := math.Float32frombits(base | tt.lost)
			if got := NewF24(v).U24(); got != tt.want {
				t.Errorf("payload %06x, want %06x", got, tt.want)
			}
		})
	}

	odd := math.Float32bits(1.5) | 0x100 // low kept bit set
	if got := NewF24(math.Float32frombits(odd | 0x80)).U24(); got != odd>>8+1 {
		t.Errorf("half with odd payload should round up, got %06x", got)
	}
}

func TestNumb_PartialKeepsOperand(t *testing.T) {
	op := NewSym(OpMul)
	p := Partial(op, NewU24(2))
	if p.Type() != OpMul {
		t.Fatalf("partial type %d, want %d", p.Type(), OpMul)
	}
	if p.U24() != 2 {
		t.Errorf("partial payload %d, want 2", p.U24())
	}
	if p == op {
		t.Error("partial must differ from the bare symbol")
	}
}

// ============================================================
// Display
// ============================================================

func TestNumb_String(t *testing.T) {
	tests := []struct {
		numb Numb
		want string
	}{
		{NewSym(TyU24), "[u24]"},
		{NewSym(TyI24), "[i24]"},
		{NewSym(TyF24), "[f24]"},
		{NewSym(OpAdd), "[+]"},
		{NewSym(FpSub), "[:-]"},
		{NewSym(OpShl), "[<<]"},
		{NewSym(FpShr), "[:>>]"},
		{NewSym(OpXor), "[^]"},
		{NewSym(TySym), "[?]"},
		{NewU24(0), "0"},
		{NewU24(123), "123"},
		{NewI24(5), "+5"},
		{NewI24(0), "+0"},
		{NewI24(-5), "-5"},
		{NewF24(1), "1.0"},
		{NewF24(-2.5), "-2.5"},
		{NewF24(0), "0.0"},
		{NewF24(float32(math.Inf(1))), "+inf"},
		{NewF24(float32(math.Inf(-1))), "-inf"},
		{NewF24(float32(math.NaN())), "+NaN"},
		{Partial(NewSym(OpMul), NewU24(2)), "[*0x0000002]"},
		{Partial(NewSym(FpSub), NewI24(-1)), "[:-0x0FFFFFF]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.numb.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNumb_StringKeepsFloatMarker(t *testing.T) {
	for _, v := range []float32{1e20, 1.5e-7, -3e17} {
		s := NewF24(v).String()
		if !containsDot(s) {
			t.Errorf("%v rendered as %q, missing '.'", v, s)
		}
	}
}

func containsDot(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}

func TestNumType_Tokens(t *testing.T) {
	seen := map[string]NumType{}
	for ty := TyU24; ty <= FpShr; ty++ {
		tok, ok := ty.Token()
		if !ok {
			t.Errorf("type %#x has no token", ty)
			continue
		}
		if prev, dup := seen[tok]; dup {
			t.Errorf("token %q used by %#x and %#x", tok, prev, ty)
		}
		seen[tok] = ty
		if ty.Flipped() != (tok[0] == ':') {
			t.Errorf("token %q: Flipped() = %v", tok, ty.Flipped())
		}
	}
	if _, ok := TySym.Token(); ok {
		t.Error("TySym should have no token")
	}
	if _, ok := NumType(0x1F).Token(); ok {
		t.Error("0x1F should have no token")
	}
}
