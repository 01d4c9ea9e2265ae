package ast

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/Neumenon/hvmc/hvm"
)

// opParseOrder lists operators in the order they are tried, so that a token
// is never shadowed by one of its prefixes ("<<" before "<").
var opParseOrder = [...]hvm.NumType{
	hvm.OpAdd, hvm.OpSub, hvm.FpSub,
	hvm.OpMul, hvm.OpDiv, hvm.FpDiv,
	hvm.OpRem, hvm.FpRem,
	hvm.OpEq, hvm.OpNeq,
	hvm.OpShl, hvm.FpShl, hvm.OpShr, hvm.FpShr,
	hvm.OpLt, hvm.OpGt,
	hvm.OpAnd, hvm.OpOr, hvm.OpXor,
}

var castParseOrder = [...]hvm.NumType{hvm.TyU24, hvm.TyI24, hvm.TyF24}

// ParseNumb parses a single number: a literal or a bracketed symbol.
func ParseNumb(input string) (hvm.Numb, error) {
	s := &scanner{input: input}
	n, err := s.parseNumb()
	if err != nil {
		return 0, err
	}
	s.skipTrivia()
	if !s.atEnd() {
		return 0, s.expected("end of input")
	}
	return n, nil
}

func (s *scanner) parseNumb() (hvm.Numb, error) {
	s.skipTrivia()
	if s.peek() == '[' {
		return s.parseNumbSym()
	}
	return s.parseNumbLit()
}

// parseNumbSym parses [u24], [+], [*2] and friends.
func (s *scanner) parseNumbSym() (hvm.Numb, error) {
	if err := s.consume("["); err != nil {
		return 0, err
	}

	// Casts cannot be partially applied.
	for _, cast := range castParseOrder {
		tok, _ := cast.Token()
		if s.tryConsume(tok) {
			if !s.tryConsume("]") {
				return 0, s.expected("']'")
			}
			return hvm.NewSym(cast), nil
		}
	}

	op, ok := s.parseOperator()
	if !ok {
		return 0, s.expected("operator symbol")
	}
	sym := hvm.NewSym(op)

	s.skipTrivia()
	num := sym
	if s.peek() != ']' {
		operand, err := s.parseNumbLit()
		if err != nil {
			return 0, err
		}
		num = hvm.Partial(sym, operand)
	}

	if err := s.consume("]"); err != nil {
		return 0, err
	}
	return num, nil
}

func (s *scanner) parseOperator() (hvm.NumType, bool) {
	for _, op := range opParseOrder {
		tok, _ := op.Token()
		if s.tryConsume(tok) {
			return op, true
		}
	}
	return 0, false
}

// parseNumbLit parses a u24, i24 or f24 literal. Literals with '.', "inf"
// or "NaN" are floats; a leading sign makes an i24; anything else is a u24.
// Integers accept 0x and 0b prefixes.
func (s *scanner) parseNumbLit() (hvm.Numb, error) {
	start := s.pos
	lit := s.takeWhile(isLiteralRune)
	end := s.pos
	if lit == "" {
		return 0, s.expected("number")
	}

	switch {
	case strings.Contains(lit, ".") || strings.Contains(lit, "inf") || strings.Contains(lit, "NaN"):
		f, ok := parseFloatLit(lit)
		if !ok {
			return 0, s.errorAt(start, end, "invalid number literal %q", lit)
		}
		return hvm.NewF24(f), nil

	case lit[0] == '+' || lit[0] == '-':
		v, ok := parseIntLit(lit[1:])
		if !ok {
			return 0, s.errorAt(start, end, "invalid number literal %q", lit)
		}
		i := int32(v)
		if lit[0] == '-' {
			i = -i
		}
		return hvm.NewI24(i), nil

	default:
		v, ok := parseIntLit(lit)
		if !ok {
			return 0, s.errorAt(start, end, "invalid number literal %q", lit)
		}
		return hvm.NewU24(uint32(v)), nil
	}
}

func parseIntLit(lit string) (uint64, bool) {
	base := 10
	switch {
	case strings.HasPrefix(lit, "0x"):
		base, lit = 16, lit[2:]
	case strings.HasPrefix(lit, "0b"):
		base, lit = 2, lit[2:]
	}
	v, err := strconv.ParseUint(lit, base, 64)
	return v, err == nil
}

func parseFloatLit(lit string) (float32, bool) {
	unsigned := strings.TrimLeft(lit, "+-")
	if unsigned == "NaN" && len(lit)-len(unsigned) <= 1 {
		return float32(math.NaN()), true
	}
	f, err := strconv.ParseFloat(lit, 32)
	if err != nil {
		// Out of range literals saturate to an infinity or zero.
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || numErr.Err != strconv.ErrRange {
			return 0, false
		}
	}
	return float32(f), true
}
