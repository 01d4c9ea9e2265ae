package stream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Reader reads frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
	dec        *zstd.Decoder
	offset     int // bytes consumed so far
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 64 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithoutCRCVerification disables CRC verification.
func WithoutCRCVerification() ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = false
	}
}

// NewReader creates a new frame reader. CRCs are verified by default.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Close releases the decompressor. It does not close the underlying reader.
func (r *Reader) Close() {
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
	}
}

// Next reads and returns the next frame with its payload decoded.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() (*Frame, error) {
	start := r.offset

	// Read header line
	headerLine, err := r.r.ReadString('\n')
	r.offset += len(headerLine)
	if err != nil {
		if err == io.EOF && headerLine == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	frame, wireLen, err := parseHeader(headerLine)
	if err != nil {
		if pe, ok := err.(*ParseError); ok && pe.Offset >= 0 {
			pe.Offset += start
		}
		return nil, err
	}

	// Read exact payload bytes
	if wireLen > r.maxPayload {
		return nil, &ParseError{Reason: fmt.Sprintf("payload too large: %d > %d", wireLen, r.maxPayload), Offset: start}
	}
	if wireLen > 0 {
		frame.Payload = make([]byte, wireLen)
		if _, err := io.ReadFull(r.r, frame.Payload); err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		r.offset += wireLen
	}

	// Consume trailing newline (optional at EOF)
	if b, err := r.r.ReadByte(); err == nil {
		if b != '\n' {
			// Put it back - it's part of the next frame
			r.r.UnreadByte()
		} else {
			r.offset++
		}
	}

	if frame.IsCompressed() && len(frame.Payload) > 0 {
		if err := r.decompress(frame); err != nil {
			return nil, err
		}
	}

	if r.verifyCRC {
		if err := VerifyCRC(frame); err != nil {
			return nil, err
		}
	}

	return frame, nil
}

func (r *Reader) decompress(frame *Frame) error {
	if r.dec == nil {
		dec, err := newDecoder(r.maxPayload)
		if err != nil {
			return fmt.Errorf("zstd decoder: %w", err)
		}
		r.dec = dec
	}
	payload, err := r.dec.DecodeAll(frame.Payload, nil)
	if err != nil {
		return fmt.Errorf("decompress payload of sid=%d seq=%d: %w", frame.SID, frame.Seq, err)
	}
	if len(payload) > r.maxPayload {
		return &ParseError{Reason: fmt.Sprintf("decoded payload too large: %d > %d", len(payload), r.maxPayload), Offset: -1}
	}
	frame.Payload = payload
	return nil
}

// parseHeader parses the @frame{...} header line and returns the frame
// together with the number of payload bytes on the wire.
func parseHeader(line string) (*Frame, int, error) {
	line = strings.TrimSpace(line)

	// Check prefix
	if !strings.HasPrefix(line, "@frame{") {
		return nil, 0, &ParseError{Reason: "expected @frame{", Offset: 0}
	}

	// Find closing brace
	endIdx := strings.LastIndex(line, "}")
	if endIdx < 0 {
		return nil, 0, &ParseError{Reason: "missing closing }", Offset: len(line)}
	}

	// Extract key=value content
	content := line[7:endIdx]

	frame := &Frame{Version: 1}
	wireLen := -1

	for _, pair := range tokenize(content) {
		eqIdx := strings.Index(pair, "=")
		if eqIdx < 0 {
			continue // skip malformed pairs
		}
		key := pair[:eqIdx]
		val := pair[eqIdx+1:]

		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid version", Offset: -1}
			}
			if uint8(v) != Version {
				return nil, 0, &ParseError{Reason: "unsupported version " + val, Offset: -1}
			}
			frame.Version = uint8(v)

		case "sid":
			sid, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid sid", Offset: -1}
			}
			frame.SID = sid

		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid seq", Offset: -1}
			}
			frame.Seq = seq

		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid kind: " + val, Offset: -1}
			}
			frame.Kind = kind

		case "len":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid len", Offset: -1}
			}
			wireLen = int(l)

		case "crc":
			crc, ok := parseCRC(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid crc: " + val, Offset: -1}
			}
			frame.CRC = &crc
			frame.Flags |= FlagHasCRC

		case "base":
			base, ok := parseBase(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid base: " + val, Offset: -1}
			}
			frame.Base = &base
			frame.Flags |= FlagHasBase

		case "enc":
			if val != encZstd {
				return nil, 0, &ParseError{Reason: "unknown encoding: " + val, Offset: -1}
			}
			frame.Flags |= FlagCompressed

		case "final":
			frame.Final = val == "true" || val == "1"
			if frame.Final {
				frame.Flags |= FlagFinal
			}

		case "flags":
			flags, err := strconv.ParseUint(val, 16, 8)
			if err == nil {
				frame.Flags |= Flags(flags)
			}
		}
	}

	if wireLen < 0 {
		return nil, 0, &ParseError{Reason: "missing len", Offset: -1}
	}
	return frame, wireLen, nil
}

// tokenize splits key=value pairs separated by spaces or commas.
func tokenize(s string) []string {
	var tokens []string
	var current bytes.Buffer
	inQuote := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			current.WriteByte(c)
		case (c == ' ' || c == ',' || c == '\t') && !inQuote:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// parseCRC parses CRC value: "crc32:XXXXXXXX" or "XXXXXXXX"
func parseCRC(val string) (uint32, bool) {
	// Strip optional prefix
	val = strings.TrimPrefix(val, "crc32:")

	if len(val) != 8 {
		return 0, false
	}

	v, err := strconv.ParseUint(val, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// parseBase parses base hash: "sha256:XXXX..." or "XXXX..."
func parseBase(val string) ([32]byte, bool) {
	// Strip optional prefix
	val = strings.TrimPrefix(val, "sha256:")
	return HexToHash(val)
}

// ReadAll reads all frames until EOF.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}
