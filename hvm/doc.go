// Package hvm defines the graph form consumed by an interaction-combinator
// evaluator: tagged ports, node pairs, packed numbers, compiled definitions
// and the flat byte buffer they travel in.
//
// # Ports
//
// A Port is a 32-bit word holding a 3-bit tag and a 29-bit value:
//
//	VAR  variable slot in the net's var array
//	REF  definition id
//	ERA  eraser (value unused)
//	NUM  packed Numb
//	CON  constructor node location
//	DUP  duplicator node location
//	OPR  numeric operation node location
//	SWI  numeric switch node location
//
// A Pair packs two ports into 64 bits and is the unit of the node array and
// of the redex bag.
//
// # Numbers
//
// A Numb keeps a 5-bit type in its low bits and a 24-bit payload above it.
// Types 1..3 are u24, i24 and f24 values; type 0 is a bare symbol (a cast or
// an operator, stored in the payload); types 4 and above are operators
// partially applied to the payload.
//
// # Graph memory
//
// GNet is the evaluator-side memory: a node array, a var array, a redex
// bag and an interaction counter. It is written by an Evaluator and read by
// readback once the evaluator has quiesced. The Loader evaluator only
// instantiates the entry definition; reduction belongs to external
// evaluators plugged in through the Evaluator interface.
package hvm
