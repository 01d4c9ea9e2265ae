package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Writer writes frames to an io.Writer.
type Writer struct {
	w        io.Writer
	withCRC  bool // Whether to compute and include CRC
	compress bool // Whether to zstd-compress non-empty payloads
	level    zstd.EncoderLevel
	enc      *zstd.Encoder
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCRC computes a CRC for every frame that does not carry one.
func WithCRC() WriterOption {
	return func(w *Writer) {
		w.withCRC = true
	}
}

// WithCompression zstd-compresses every non-empty payload at the given level.
func WithCompression(level zstd.EncoderLevel) WriterOption {
	return func(w *Writer) {
		w.compress = true
		w.level = level
	}
}

// NewWriter creates a new frame writer.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	writer := &Writer{w: w, level: zstd.SpeedDefault}
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// Close releases the compressor. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.enc != nil {
		err := w.enc.Close()
		w.enc = nil
		return err
	}
	return nil
}

// WriteFrame writes a single frame. Frames flagged FlagCompressed are
// compressed even when the writer was not configured to.
//
// Format:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [base=sha256:X] [enc=zstd] [final=true]}\n
//	<payload bytes>\n
func (w *Writer) WriteFrame(f *Frame) error {
	wire := f.Payload
	compressed := len(f.Payload) > 0 && (w.compress || f.Flags&FlagCompressed != 0)
	if compressed {
		if w.enc == nil {
			enc, err := newEncoder(w.level)
			if err != nil {
				return fmt.Errorf("zstd encoder: %w", err)
			}
			w.enc = enc
		}
		wire = w.enc.EncodeAll(f.Payload, make([]byte, 0, len(f.Payload)/2))
	}

	var header strings.Builder
	header.WriteString("@frame{")

	// Required fields
	header.WriteString("v=")
	if f.Version == 0 {
		header.WriteByte('1')
	} else {
		header.WriteString(strconv.Itoa(int(f.Version)))
	}

	header.WriteString(" sid=")
	header.WriteString(strconv.FormatUint(f.SID, 10))

	header.WriteString(" seq=")
	header.WriteString(strconv.FormatUint(f.Seq, 10))

	header.WriteString(" kind=")
	header.WriteString(f.Kind.String())

	header.WriteString(" len=")
	header.WriteString(strconv.Itoa(len(wire)))

	// Optional CRC, always over the decoded payload
	crc := f.CRC
	if crc == nil && w.withCRC && len(f.Payload) > 0 {
		computed := ComputeCRC(f.Payload)
		crc = &computed
	}
	if crc != nil {
		fmt.Fprintf(&header, " crc=%08x", *crc)
	}

	// Optional base hash
	if f.Base != nil {
		header.WriteString(" base=sha256:")
		header.WriteString(HashToHex(*f.Base))
	}

	if compressed {
		header.WriteString(" enc=" + encZstd)
	}

	// Optional final flag
	if f.IsFinal() {
		header.WriteString(" final=true")
	}

	header.WriteString("}\n")

	// Write header
	if _, err := io.WriteString(w.w, header.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Write payload
	if len(wire) > 0 {
		if _, err := w.w.Write(wire); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}

	// Write trailing newline
	if _, err := io.WriteString(w.w, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}

	return nil
}

// WriteSource writes a source frame holding canonical program text.
func (w *Writer) WriteSource(sid, seq uint64, text string) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindSource,
		Payload: []byte(text),
	})
}

// WriteBook writes a compiled book buffer, optionally bound to the hash of
// the source it was compiled from.
func (w *Writer) WriteBook(sid, seq uint64, data []byte, base *[32]byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindBook,
		Payload: data,
		Base:    base,
	})
}

// WriteResult writes a result frame.
func (w *Writer) WriteResult(sid, seq uint64, text string) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindResult,
		Payload: []byte(text),
	})
}

// WriteErr writes an error frame. An error ends its stream, so the frame
// is final.
func (w *Writer) WriteErr(sid, seq uint64, msg string) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindErr,
		Payload: []byte(msg),
		Final:   true,
	})
}

// WriteFinal writes a final frame for a stream.
func (w *Writer) WriteFinal(sid, seq uint64, kind FrameKind, payload []byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    kind,
		Payload: payload,
		Final:   true,
	})
}
