// Package storage persists tapes: as a packed fixed size record like the one
// kept in the settings flash of the firmware, as a human editable YAML
// snapshot, and as files written in the background while playing.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vsariola/looper"
)

const (
	// BitsPos is the number of bits of a position that survive packing. The
	// lowest 16-BitsPos bits are dropped.
	BitsPos = 13

	posShift  = 16 - BitsPos
	posMask   = 1<<BitsPos - 1
	openFlag  = 1 << 15
	slotSize  = 6
	trailer   = 2
	emptyMark = 0xFF

	// RecordSize is the length of a packed tape in bytes.
	RecordSize = looper.MaxNotes*slotSize + trailer
)

var (
	ErrShortRecord = errors.New("packed tape is too short")
	ErrCorrupt     = errors.New("packed tape is corrupt")
)

// Pack encodes the tape into a RecordSize byte record. Links are not stored;
// the only thing kept of them is whether each live note is still open.
// Positions lose their lowest bits, see BitsPos.
func Pack(t looper.Tape) []byte {
	b := make([]byte, RecordSize)
	for i := range t.Notes {
		note := &t.Notes[i]
		on := uint16(note.OnPos>>posShift) & posMask
		if t.Contains(looper.Index(i)) && note.Open() {
			on |= openFlag
		}
		s := b[i*slotSize:]
		binary.LittleEndian.PutUint16(s[0:], on)
		binary.LittleEndian.PutUint16(s[2:], uint16(note.OffPos>>posShift)&posMask)
		s[4] = note.Pitch
		s[5] = note.Velocity
	}
	b[RecordSize-2] = byte(t.Oldest)
	b[RecordSize-1] = byte(t.Newest)
	return b
}

// Unpack decodes a record written by Pack. The links of the returned tape
// are not usable lists: live closed notes point their off link at themselves
// and open notes have a null off link, which is enough for deck.Load to
// rebuild both lists.
func Unpack(b []byte) (looper.Tape, error) {
	t := looper.EmptyTape()
	if len(b) < RecordSize {
		return t, fmt.Errorf("%w: %d bytes, want %d", ErrShortRecord, len(b), RecordSize)
	}
	if len(b) > RecordSize {
		return t, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(b)-RecordSize)
	}
	oldest, newest := looper.Index(b[RecordSize-2]), looper.Index(b[RecordSize-1])
	if !oldest.Valid() || (newest != emptyMark && !newest.Valid()) {
		return t, fmt.Errorf("%w: live window %d..%d", ErrCorrupt, oldest, newest)
	}
	t.Oldest, t.Newest = oldest, newest
	for i := range t.Notes {
		s := b[i*slotSize:]
		on := binary.LittleEndian.Uint16(s[0:])
		off := binary.LittleEndian.Uint16(s[2:])
		if on&^(posMask|openFlag) != 0 || off&^posMask != 0 {
			return looper.EmptyTape(), fmt.Errorf("%w: stray bits in slot %d", ErrCorrupt, i)
		}
		note := &t.Notes[i]
		note.OnPos = looper.Pos(on&posMask) << posShift
		note.OffPos = looper.Pos(off) << posShift
		note.Pitch = s[4]
		note.Velocity = s[5]
		if t.Contains(looper.Index(i)) && on&openFlag == 0 {
			note.Next.Off = looper.Index(i)
		}
	}
	return t, nil
}

// Truncate drops the bits of a position that Pack does not keep.
func Truncate(p looper.Pos) looper.Pos {
	return p >> posShift << posShift
}
