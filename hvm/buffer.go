package hvm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// NameSize is the fixed width of a definition name in the flat buffer.
const NameSize = 256

var (
	// ErrNameTooLong is returned when a definition name does not fit NameSize.
	ErrNameTooLong = errors.New("hvm: definition name too long")

	// ErrCorruptBuffer is returned when a flat buffer is truncated or inconsistent.
	ErrCorruptBuffer = errors.New("hvm: corrupt book buffer")
)

// defHeaderSize covers fid, name, safe, rbag len, node len, vars and root.
const defHeaderSize = 4 + NameSize + 4*5

// MarshalBinary encodes the book into the flat little-endian layout native
// evaluators load:
//
//	u32 ndefs
//	per def:
//	  u32 fid
//	  [256]byte name (zero padded)
//	  u32 safe, u32 len(rbag), u32 len(node), u32 vars, u32 root
//	  u64 rbag pairs...
//	  u64 node pairs...
func (b *Book) MarshalBinary() ([]byte, error) {
	size := 4
	for _, def := range b.Defs {
		if len(def.Name) >= NameSize {
			return nil, fmt.Errorf("%w: %q (%d bytes)", ErrNameTooLong, def.Name, len(def.Name))
		}
		size += defHeaderSize + 8*(len(def.Rbag)+len(def.Node))
	}

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Defs)))
	for fid, def := range b.Defs {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(fid))

		var name [NameSize]byte
		copy(name[:], def.Name)
		buf = append(buf, name[:]...)

		safe := uint32(0)
		if def.Safe {
			safe = 1
		}
		buf = binary.LittleEndian.AppendUint32(buf, safe)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(def.Rbag)))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(def.Node)))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(def.Vars))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(def.Root))

		for _, rx := range def.Rbag {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(rx))
		}
		for _, pair := range def.Node {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(pair))
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes a flat buffer produced by MarshalBinary,
// replacing the book's definitions. Every definition is validated.
func (b *Book) UnmarshalBinary(data []byte) error {
	r := bufReader{data: data}

	ndefs, err := r.u32()
	if err != nil {
		return err
	}
	// Each definition needs at least its header.
	if uint64(ndefs)*defHeaderSize > uint64(r.remaining()) {
		return fmt.Errorf("%w: %d definitions do not fit %d bytes", ErrCorruptBuffer, ndefs, len(data))
	}

	defs := make([]*Def, 0, ndefs)
	for i := uint32(0); i < ndefs; i++ {
		def, err := r.def(i)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}
	if r.remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorruptBuffer, r.remaining())
	}

	for _, def := range defs {
		if err := def.Validate(len(defs)); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptBuffer, err)
		}
	}

	b.Defs = defs
	return nil
}

// UnmarshalBook decodes a flat buffer into a new Book.
func UnmarshalBook(data []byte) (*Book, error) {
	b := &Book{}
	if err := b.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return b, nil
}

type bufReader struct {
	data []byte
	pos  int
}

func (r *bufReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *bufReader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("%w: truncated at offset %d", ErrCorruptBuffer, r.pos)
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *bufReader) pairs(n uint32) ([]Pair, error) {
	if uint64(n)*8 > uint64(r.remaining()) {
		return nil, fmt.Errorf("%w: %d pairs do not fit at offset %d", ErrCorruptBuffer, n, r.pos)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]Pair, n)
	for i := range out {
		out[i] = Pair(binary.LittleEndian.Uint64(r.data[r.pos:]))
		r.pos += 8
	}
	return out, nil
}

func (r *bufReader) def(index uint32) (*Def, error) {
	fid, err := r.u32()
	if err != nil {
		return nil, err
	}
	if fid != index {
		return nil, fmt.Errorf("%w: definition %d carries id %d", ErrCorruptBuffer, index, fid)
	}

	if r.remaining() < NameSize {
		return nil, fmt.Errorf("%w: truncated name at offset %d", ErrCorruptBuffer, r.pos)
	}
	raw := r.data[r.pos : r.pos+NameSize]
	r.pos += NameSize
	end := 0
	for end < len(raw) && raw[end] != 0 {
		end++
	}

	var hdr [5]uint32
	for i := range hdr {
		if hdr[i], err = r.u32(); err != nil {
			return nil, err
		}
	}
	safe, nrbag, nnode, vars, root := hdr[0], hdr[1], hdr[2], hdr[3], hdr[4]

	rbag, err := r.pairs(nrbag)
	if err != nil {
		return nil, err
	}
	node, err := r.pairs(nnode)
	if err != nil {
		return nil, err
	}

	return &Def{
		Name: string(raw[:end]),
		Safe: safe != 0,
		Root: Port(root),
		Rbag: rbag,
		Node: node,
		Vars: int(vars),
	}, nil
}
