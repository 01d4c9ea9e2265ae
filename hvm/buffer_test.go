package hvm

import (
	"encoding/binary"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleBook() *Book {
	return &Book{Defs: []*Def{
		{
			Name: "main",
			Safe: true,
			Root: NewPort(TagCon, 0),
			Node: []Pair{NewPair(NewPort(TagVar, 0), NewPort(TagVar, 0))},
			Vars: 1,
		},
		{
			Name: "dup",
			Safe: false,
			Root: NewPort(TagVar, 0),
			Rbag: []Pair{NewPair(NewPort(TagRef, 0), NewPort(TagDup, 0)).WithParFlag()},
			Node: []Pair{NewPair(NewPort(TagVar, 0), NewPort(TagNum, uint32(NewU24(3))))},
			Vars: 1,
		},
	}}
}

func TestBuffer_RoundTrip(t *testing.T) {
	book := sampleBook()
	data, err := book.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	want := 4 + 2*defHeaderSize + 8*(1+2)
	if len(data) != want {
		t.Errorf("buffer size %d, want %d", len(data), want)
	}

	got, err := UnmarshalBook(data)
	if err != nil {
		t.Fatalf("UnmarshalBook failed: %v", err)
	}
	if !reflect.DeepEqual(got, book) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got.Defs, book.Defs)
	}
}

func TestBuffer_Layout(t *testing.T) {
	data, err := sampleBook().MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if n := binary.LittleEndian.Uint32(data); n != 2 {
		t.Errorf("def count %d, want 2", n)
	}
	if fid := binary.LittleEndian.Uint32(data[4:]); fid != 0 {
		t.Errorf("first fid %d, want 0", fid)
	}
	if name := string(data[8:12]); name != "main" {
		t.Errorf("name %q, want main", name)
	}
	if data[12] != 0 {
		t.Error("name must be zero padded")
	}
	if safe := binary.LittleEndian.Uint32(data[8+NameSize:]); safe != 1 {
		t.Errorf("safe %d, want 1", safe)
	}
}

func TestBuffer_NameTooLong(t *testing.T) {
	book := &Book{Defs: []*Def{{Name: strings.Repeat("x", NameSize)}}}
	if _, err := book.MarshalBinary(); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}
}

func TestBuffer_Corrupt(t *testing.T) {
	good, err := sampleBook().MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	badRef := &Book{Defs: []*Def{{Name: "main", Root: NewPort(TagRef, 4)}}}
	badRefData, err := badRef.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", good[:len(good)-3]},
		{"trailing", append(append([]byte{}, good...), 0)},
		{"huge count", []byte{0xFF, 0xFF, 0xFF, 0x7F}},
		{"dangling ref", badRefData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalBook(tt.data); !errors.Is(err, ErrCorruptBuffer) {
				t.Errorf("expected ErrCorruptBuffer, got %v", err)
			}
		})
	}
}

func TestBook_LookupAndStats(t *testing.T) {
	book := sampleBook()
	id, def, ok := book.Lookup("dup")
	if !ok || id != 1 || def.Name != "dup" {
		t.Fatalf("Lookup(dup) = %d, %v, %v", id, def, ok)
	}
	if _, _, ok := book.Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}

	s := book.Stats()
	if s.Defs != 2 || s.Nodes != 2 || s.Redexes != 1 || s.Vars != 2 || s.Unsafe != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}
