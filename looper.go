package looper

const (
	// MaxNotes is the capacity of a Tape; recording more notes than this
	// evicts the oldest one.
	MaxNotes = 16
	// NoteStackSize is the number of simultaneously pressed keys that can be
	// tracked while recording.
	NoteStackSize = 12
)

// Pos is a location within the loop. The loop is a circle: arithmetic on Pos
// wraps at 2^16, and ordering questions must be answered with Passed rather
// than with < or >.
type Pos uint16

// Passed reports whether target lies strictly after before and at or before
// after, walking forward around the loop. When before >= after the interval
// wraps past the end of the loop.
func Passed(target, before, after Pos) bool {
	if before < after {
		return target > before && target <= after
	}
	return target > before || target <= after
}

// Index names one of the MaxNotes slots of a Tape, or NullIndex. It doubles as
// a link in the circular note lists, where NullIndex plays the role of nil.
type Index uint8

const NullIndex Index = 0xFF

// Valid returns true if the index refers to a slot of a Tape.
func (i Index) Valid() bool {
	return i < MaxNotes
}

// Next returns the slot after i, wrapping from the last slot back to 0.
func (i Index) Next() Index {
	return (i + 1) % MaxNotes
}

// Prev returns the slot before i, wrapping from 0 to the last slot.
func (i Index) Prev() Index {
	return (i + MaxNotes - 1) % MaxNotes
}

// KeySlot identifies a currently pressed key of the performer. The owner of a
// deck assigns the slots; values at or above NoteStackSize are not tracked.
type KeySlot uint8

func (k KeySlot) Valid() bool {
	return k < NoteStackSize
}
