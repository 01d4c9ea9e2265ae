package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/Neumenon/hvmc/ast"
	"github.com/Neumenon/hvmc/hvm"
)

// ProgramSID is the stream id used for programs in container files.
const ProgramSID = 0

// ErrNoProgram is returned when a container has neither a book nor a source frame.
var ErrNoProgram = errors.New("frame: container holds no program")

// Program is the decoded content of a container file.
type Program struct {
	Source *ast.Book // nil when the container has no source frame
	Book   *hvm.Book
}

// WriteProgram writes a container: a source frame with the canonical text
// of src (when src is not nil) followed by a final book frame whose base
// hash binds it to that source.
func WriteProgram(w io.Writer, src *ast.Book, book *hvm.Book, opts ...WriterOption) error {
	data, err := book.MarshalBinary()
	if err != nil {
		return fmt.Errorf("serialize book: %w", err)
	}

	fw := NewWriter(w, opts...)
	defer fw.Close()

	seq := uint64(1)
	var base *[32]byte
	if src != nil {
		if err := fw.WriteSource(ProgramSID, seq, src.String()); err != nil {
			return err
		}
		h := StateHash(src)
		base = &h
		seq++
	}

	return fw.WriteFrame(&Frame{
		Version: Version,
		SID:     ProgramSID,
		Seq:     seq,
		Kind:    KindBook,
		Payload: data,
		Base:    base,
		Final:   true,
	})
}

// ReadProgram reads a container written by WriteProgram. A container with
// only a source frame is compiled on the fly.
func ReadProgram(r io.Reader, opts ...ReaderOption) (*Program, error) {
	fr := NewReader(r, opts...)
	defer fr.Close()

	cursor := NewStreamCursor()
	for {
		frame, err := fr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if frame.SID != ProgramSID {
			continue
		}
		if err := cursor.ProcessFrame(frame); err != nil {
			return nil, err
		}
	}

	state := cursor.GetReadOnly(ProgramSID)
	if state == nil {
		return nil, ErrNoProgram
	}
	prog := &Program{Source: state.Source, Book: state.Book}
	if prog.Book == nil {
		if prog.Source == nil {
			return nil, ErrNoProgram
		}
		book, err := ast.Compile(prog.Source)
		if err != nil {
			return nil, err
		}
		prog.Book = book
	}
	return prog, nil
}
