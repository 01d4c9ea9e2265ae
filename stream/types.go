// Package stream implements the framed container used to store and ship
// programs: canonical source text, compiled book buffers and run results.
//
// Each frame is a one-line text header followed by exactly len payload
// bytes, so binary payloads need no escaping:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [base=sha256:X] [enc=zstd] [final=true]}\n
//	<payload bytes>\n
//
// The header provides:
//   - Message boundaries (len)
//   - Multiplexing via stream IDs (sid)
//   - Ordering via sequence numbers (seq)
//   - Integrity via optional CRC-32 of the decoded payload
//   - Source identity via optional SHA-256 of the canonical program text (base)
//   - Optional zstd compression of the payload (enc)
package stream

import (
	"fmt"
)

// Version is the frame format version.
const Version uint8 = 1

// FrameKind indicates the semantic category of a frame's payload.
type FrameKind uint8

const (
	KindSource FrameKind = 0 // Canonical program text
	KindBook   FrameKind = 1 // Compiled book in the flat buffer layout
	KindResult FrameKind = 2 // Read back result text
	KindErr    FrameKind = 3 // Error message
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindBook:
		return "book"
	case KindResult:
		return "result"
	case KindErr:
		return "err"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind string or numeric value.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "source", "0":
		return KindSource, true
	case "book", "1":
		return KindBook, true
	case "result", "2":
		return KindResult, true
	case "err", "3":
		return KindErr, true
	default:
		// Try to parse as number
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n >= 0 && n <= 255 {
			return FrameKind(n), true
		}
		return 0, false
	}
}

// Flags for frames.
type Flags uint8

const (
	FlagHasCRC     Flags = 0x01 // CRC-32 is present
	FlagHasBase    Flags = 0x02 // Base hash is present
	FlagFinal      Flags = 0x04 // End-of-stream for this SID
	FlagCompressed Flags = 0x08 // Payload travels zstd-compressed
)

// Frame represents a single frame. Payload always holds the decoded bytes;
// compression only affects what travels on the wire.
type Frame struct {
	// Required fields
	Version uint8     // Format version (must be 1)
	SID     uint64    // Stream identifier
	Seq     uint64    // Sequence number (per-SID, monotonic)
	Kind    FrameKind // Frame kind
	Payload []byte    // Decoded payload bytes

	// Optional fields
	CRC   *uint32   // CRC-32 of payload (nil if not present)
	Base  *[32]byte // SHA-256 of the canonical source (nil if not present)
	Flags Flags     // Flag bits
	Final bool      // End-of-stream marker
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// HasBase returns true if base hash is present.
func (f *Frame) HasBase() bool {
	return f.Base != nil
}

// IsFinal returns true if this is the final frame for this SID.
func (f *Frame) IsFinal() bool {
	return f.Final || f.Flags&FlagFinal != 0
}

// IsCompressed returns true if the payload travelled compressed.
func (f *Frame) IsCompressed() bool {
	return f.Flags&FlagCompressed != 0
}

// MaxPayloadSize is the default maximum payload size (64 MiB), applied to
// both the wire and the decoded payload.
const MaxPayloadSize = 64 * 1024 * 1024

// ParseError is returned for malformed frames.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("frame: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("frame: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("frame: CRC mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

// BaseMismatchError is returned when a book frame was compiled from a
// different source than the one seen on its stream.
type BaseMismatchError struct {
	Expected [32]byte
	Got      [32]byte
}

func (e *BaseMismatchError) Error() string {
	return fmt.Sprintf("frame: base hash mismatch: frame has %.12s, source is %.12s",
		HashToHex(e.Expected), HashToHex(e.Got))
}
