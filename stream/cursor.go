package stream

import (
	"fmt"
	"sync"

	"github.com/Neumenon/hvmc/ast"
	"github.com/Neumenon/hvmc/hvm"
)

// StreamCursor tracks per-SID state while frames are consumed.
// It checks sequence numbers, decodes source and book payloads and
// verifies that a book frame belongs to the source seen before it.
type StreamCursor struct {
	mu sync.RWMutex

	// Per-SID state
	cursors map[uint64]*SIDState
}

// SIDState holds state for a single stream ID.
type SIDState struct {
	SID        uint64
	LastSeq    uint64    // Last sequence number seen
	SourceHash [32]byte  // StateHash of Source
	HasSource  bool      // Whether Source and SourceHash are valid
	Source     *ast.Book // Last parsed source frame
	Book       *hvm.Book // Last decoded book frame
	Results    []string  // Result frames in order
	Errors     []string  // Err frames in order
	Final      bool      // Whether stream has ended
}

// NewStreamCursor creates a new stream cursor.
func NewStreamCursor() *StreamCursor {
	return &StreamCursor{
		cursors: make(map[uint64]*SIDState),
	}
}

// Get returns the state for a SID, creating it if needed.
func (sc *StreamCursor) Get(sid uint64) *SIDState {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	state, ok := sc.cursors[sid]
	if !ok {
		state = &SIDState{SID: sid}
		sc.cursors[sid] = state
	}
	return state
}

// GetReadOnly returns the state for a SID without creating it.
func (sc *StreamCursor) GetReadOnly(sid uint64) *SIDState {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cursors[sid]
}

// Delete removes state for a SID.
func (sc *StreamCursor) Delete(sid uint64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.cursors, sid)
}

// AllSIDs returns all tracked SIDs.
func (sc *StreamCursor) AllSIDs() []uint64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	sids := make([]uint64, 0, len(sc.cursors))
	for sid := range sc.cursors {
		sids = append(sids, sid)
	}
	return sids
}

// ProcessFrame checks a frame against the cursor and applies it.
// Returns an error if:
//   - Sequence number is not monotonic (gap or duplicate)
//   - A source payload does not parse
//   - A book payload is not a valid buffer
//   - A book's base hash differs from the stream's source
//
// State is only updated when the frame is accepted.
func (sc *StreamCursor) ProcessFrame(frame *Frame) error {
	state := sc.GetReadOnly(frame.SID)
	if state == nil {
		state = &SIDState{SID: frame.SID}
	}

	if state.Final {
		return fmt.Errorf("sid %d: frame after final", frame.SID)
	}

	// Check sequence monotonicity
	if frame.Seq != 0 && frame.Seq <= state.LastSeq {
		return fmt.Errorf("sequence not monotonic: got %d, last was %d", frame.Seq, state.LastSeq)
	}

	// Check for gaps
	if state.LastSeq > 0 && frame.Seq != state.LastSeq+1 {
		return fmt.Errorf("sequence gap: expected %d, got %d", state.LastSeq+1, frame.Seq)
	}

	switch frame.Kind {
	case KindSource:
		src, err := ast.ParseBook(string(frame.Payload))
		if err != nil {
			return fmt.Errorf("sid %d seq %d: source: %w", frame.SID, frame.Seq, err)
		}
		state.Source = src
		state.SourceHash = StateHash(src)
		state.HasSource = true

	case KindBook:
		if frame.Base != nil {
			if !state.HasSource {
				return fmt.Errorf("cannot verify base: no source for SID %d", frame.SID)
			}
			if !VerifyBase(state.SourceHash, *frame.Base) {
				return &BaseMismatchError{Expected: *frame.Base, Got: state.SourceHash}
			}
		}
		book, err := hvm.UnmarshalBook(frame.Payload)
		if err != nil {
			return fmt.Errorf("sid %d seq %d: book: %w", frame.SID, frame.Seq, err)
		}
		state.Book = book

	case KindResult:
		state.Results = append(state.Results, string(frame.Payload))

	case KindErr:
		state.Errors = append(state.Errors, string(frame.Payload))
	}

	sc.mu.Lock()
	sc.cursors[frame.SID] = state
	sc.mu.Unlock()

	// Update sequence
	state.LastSeq = frame.Seq

	// Update final flag
	if frame.IsFinal() {
		state.Final = true
	}

	return nil
}

// SetSource records a source without a frame, e.g. one read from disk,
// so that later book frames can be checked against it.
func (sc *StreamCursor) SetSource(sid uint64, src *ast.Book) {
	state := sc.Get(sid)
	state.Source = src
	state.SourceHash = StateHash(src)
	state.HasSource = true
}
