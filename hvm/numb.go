package hvm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumType is the 5-bit type field of a Numb. Values 1..3 double as cast
// symbols; values from OpAdd up are operators.
type NumType uint8

const (
	TySym NumType = 0x00
	TyU24 NumType = 0x01
	TyI24 NumType = 0x02
	TyF24 NumType = 0x03

	OpAdd NumType = 0x04
	OpSub NumType = 0x05
	FpSub NumType = 0x06 // flipped: b - a
	OpMul NumType = 0x07
	OpDiv NumType = 0x08
	FpDiv NumType = 0x09
	OpRem NumType = 0x0A
	FpRem NumType = 0x0B
	OpEq  NumType = 0x0C
	OpNeq NumType = 0x0D
	OpLt  NumType = 0x0E
	OpGt  NumType = 0x0F
	OpAnd NumType = 0x10
	OpOr  NumType = 0x11
	OpXor NumType = 0x12
	OpShl NumType = 0x13
	FpShl NumType = 0x14
	OpShr NumType = 0x15
	FpShr NumType = 0x16
)

// symbolTokens spells every cast and operator exactly as the text notation does.
var symbolTokens = [...]string{
	TyU24: "u24",
	TyI24: "i24",
	TyF24: "f24",
	OpAdd: "+",
	OpSub: "-",
	FpSub: ":-",
	OpMul: "*",
	OpDiv: "/",
	FpDiv: ":/",
	OpRem: "%",
	FpRem: ":%",
	OpEq:  "=",
	OpNeq: "!",
	OpLt:  "<",
	OpGt:  ">",
	OpAnd: "&",
	OpOr:  "|",
	OpXor: "^",
	OpShl: "<<",
	FpShl: ":<<",
	OpShr: ">>",
	FpShr: ":>>",
}

// Token returns the spelling of a cast or operator.
func (t NumType) Token() (string, bool) {
	if int(t) >= len(symbolTokens) || symbolTokens[t] == "" {
		return "", false
	}
	return symbolTokens[t], true
}

// IsCast reports whether t names a numeric cast.
func (t NumType) IsCast() bool {
	return t >= TyU24 && t <= TyF24
}

// IsOp reports whether t names an operator.
func (t NumType) IsOp() bool {
	return t >= OpAdd && t <= FpShr
}

// Flipped reports whether the operator takes its operands in reverse order.
func (t NumType) Flipped() bool {
	switch t {
	case FpSub, FpDiv, FpRem, FpShl, FpShr:
		return true
	}
	return false
}

const (
	typeMask    = 0x1F
	payloadMask = 0xFFFFFF
)

// Numb is a packed tagged number.
type Numb uint32

// NewSym packs a bare cast or operator symbol.
func NewSym(t NumType) Numb {
	return Numb(uint32(t)<<5 | uint32(TySym))
}

// NewU24 packs an unsigned 24-bit integer. Higher bits are dropped.
func NewU24(v uint32) Numb {
	return Numb((v&payloadMask)<<5 | uint32(TyU24))
}

// NewI24 packs a signed 24-bit integer. Higher bits are dropped.
func NewI24(v int32) Numb {
	return Numb((uint32(v)&payloadMask)<<5 | uint32(TyI24))
}

// NewF24 packs a float32 into 24 bits, rounding the 8 dropped mantissa bits
// to nearest even. NaN stays NaN.
func NewF24(v float32) Numb {
	bits := math.Float32bits(v)
	shifted := bits >> 8
	lost := bits & 0xFF
	nan := v != v
	if !nan && (lost-((lost>>7)&^shifted))>>7 == 1 {
		shifted++
	}
	if nan {
		shifted |= 1
	}
	return Numb((shifted&payloadMask)<<5 | uint32(TyF24))
}

// Partial applies operator op to operand, keeping the operand payload and
// moving the operator into the type field.
func Partial(op, operand Numb) Numb {
	return Numb(uint32(operand)&^typeMask | uint32(op.Sym()))
}

// Type returns the type field.
func (n Numb) Type() NumType {
	return NumType(n & typeMask)
}

// Sym returns the symbol stored in a TySym number.
func (n Numb) Sym() NumType {
	return NumType((uint32(n) >> 5) & 0x7F)
}

// U24 returns the payload as an unsigned integer.
func (n Numb) U24() uint32 {
	return (uint32(n) >> 5) & payloadMask
}

// I24 returns the payload as a sign-extended integer.
func (n Numb) I24() int32 {
	return int32(uint32(n)<<3) >> 8
}

// F24 returns the payload as a float.
func (n Numb) F24() float32 {
	return math.Float32frombits((uint32(n) << 3) & 0xFFFFFF00)
}

// String renders the number in the text notation. Values the notation has
// no direct spelling for render as [<op>0x<payload>].
func (n Numb) String() string {
	switch n.Type() {
	case TySym:
		if tok, ok := n.Sym().Token(); ok {
			return "[" + tok + "]"
		}
		return "[?]"
	case TyU24:
		return strconv.FormatUint(uint64(n.U24()), 10)
	case TyI24:
		v := n.I24()
		if v >= 0 {
			return "+" + strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatInt(int64(v), 10)
	case TyF24:
		return formatF24(n.F24())
	default:
		tok, ok := n.Type().Token()
		if !ok {
			tok = "?"
		}
		return fmt.Sprintf("[%s0x%07X]", tok, n.U24())
	}
}

// formatF24 always keeps a '.' in finite values so the text parses back as a float.
func formatF24(f float32) string {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "+NaN"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s := strconv.FormatFloat(v, 'e', -1, 32)
		mant, exp, _ := strings.Cut(s, "e")
		if !strings.Contains(mant, ".") {
			mant += ".0"
		}
		e, _ := strconv.Atoi(exp)
		return mant + "e" + strconv.Itoa(e)
	}

	s := strconv.FormatFloat(v, 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
