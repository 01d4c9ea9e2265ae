// Package ast implements the text notation of interaction nets: parsing,
// canonical printing, compilation to the graph form of package hvm and
// readback from graph memory.
//
// # Notation
//
//	Tree:  (A B)  constructor     {A B}  duplicator
//	       $(A B) operation       ?(A B) switch
//	       @name  reference       *      eraser
//	       name   variable        42 -7 1.5 [u24] [+] [*2]  numbers
//	Net:   tree (& [!] tree ~ tree)*
//	Book:  (@name = net)*
//
// A variable names one end of a wire and occurs at most twice per net.
// "!" after "&" marks a redex as eligible for parallel reduction. Comments
// start with // and run to the end of the line.
//
// # Arena
//
// Trees are Tree handles into the arena of the Net that owns them. Nodes
// are appended children first, so a node's handle is always greater than
// its children's. Nets are never mutated after parsing.
//
// # Round trips
//
// For any book b accepted by ParseBook, ParseBook(b.String()) is Equal to b.
// Compile followed by Decompile or Readback gives back each root up to a
// renaming of variables.
package ast
