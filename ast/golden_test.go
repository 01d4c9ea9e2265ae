package ast

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Neumenon/hvmc/hvm"
)

// TestGoldenRoundTrip parses every program under testdata, prints it,
// reparses the output and checks that nothing changed.
func TestGoldenRoundTrip(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.hvm"))
	if err != nil {
		t.Fatalf("failed to list testdata: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no testdata programs found")
	}

	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), ".hvm")
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read program: %v", err)
			}

			book, err := ParseBook(string(src))
			if err != nil {
				t.Fatalf("ParseBook failed: %v", err)
			}

			shown := book.String()
			again, err := ParseBook(shown)
			if err != nil {
				t.Fatalf("reparse failed: %v\n%s", err, shown)
			}
			if !again.Equal(book) {
				t.Errorf("reparsed book differs\n  first:  %s\n  second: %s", shown, again.String())
			}
			if again.String() != shown {
				t.Errorf("non-deterministic output\n  first:  %s\n  second: %s", shown, again.String())
			}
		})
	}
}

// TestGoldenCompile compiles every program, pushes it through the flat
// buffer and decompiles each definition back.
func TestGoldenCompile(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.hvm"))
	if err != nil {
		t.Fatalf("failed to list testdata: %v", err)
	}

	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), ".hvm")
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read program: %v", err)
			}
			book, err := ParseBook(string(src))
			if err != nil {
				t.Fatalf("ParseBook failed: %v", err)
			}
			out, err := Compile(book)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if len(out.Defs) != book.Len() {
				t.Fatalf("compiled %d defs, book has %d", len(out.Defs), book.Len())
			}

			data, err := out.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary failed: %v", err)
			}
			back, err := hvm.UnmarshalBook(data)
			if err != nil {
				t.Fatalf("UnmarshalBook failed: %v", err)
			}

			names := NamesOf(back)
			for _, def := range back.Defs {
				got, err := Decompile(def, names)
				if err != nil {
					t.Fatalf("Decompile(%s) failed: %v", def.Name, err)
				}
				want, _ := book.Get(def.Name)
				if !got.EqualRenamed(want) {
					t.Errorf("@%s decompiled to %s, want %s", def.Name, got, want)
				}
				if hasDup := strings.Contains(want.String(), "{"); def.Safe == hasDup {
					t.Errorf("@%s: Safe = %v with dup = %v", def.Name, def.Safe, hasDup)
				}
			}
		})
	}
}
