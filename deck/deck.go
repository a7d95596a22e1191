// Package deck implements the loop recorder/player of one sequencer track.
//
// A Deck records note-on/note-off pairs into a fixed capacity Tape while a
// playhead sweeps around the loop, and plays back the recorded notes as the
// playhead passes them. The notes are kept in two circular singly linked
// lists, one ordered by note-on position and one by note-off position, linked
// through slot indices of the tape rather than pointers, so that nothing is
// ever allocated.
//
// A Deck is not safe for concurrent use. All methods are expected to be
// called from one goroutine, the tick context of its owner, and all of them
// complete in time bounded by MaxNotes.
package deck

import (
	"fmt"
	"log"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/clock"
)

type (
	// Part is the owner of a deck: the sequencer part that routes the notes
	// played by the deck to voices. The note methods are called from within
	// deck methods and must not block.
	Part interface {
		CurrentSequencerSettings() looper.SequencerSettings
		InternalNoteOn(pitch, velocity byte)
		InternalNoteOff(pitch byte)
	}

	// PhaseClock supplies the playhead. Refresh advances it, Tap synchronizes
	// it to an external clock, Position reads it.
	PhaseClock interface {
		Init()
		Refresh()
		Tap(target uint32)
		Position() looper.Pos
	}

	Deck struct {
		part  Part
		clock PhaseClock

		tape looper.Tape
		// head holds the head cursors of the on- and off-lists: the most
		// recently passed or inserted note of each list.
		head looper.Link

		pos          looper.Pos // last committed playhead position
		needsAdvance bool

		noteIndexForKeySlot [looper.NoteStackSize]looper.Index
		// restored marks the open notes that came in with Load. Their note on
		// was never sent, so removing them sends no note off either.
		restored [looper.MaxNotes]bool

		faults int
	}
)

// New returns a deck driven by the given phase clock. If c is nil, a
// clock.SyncedLFO is used. The deck must be initialized with Init before use.
func New(c PhaseClock) *Deck {
	if c == nil {
		c = &clock.SyncedLFO{}
	}
	return &Deck{clock: c}
}

// Init attaches the deck to its owner and empties the tape.
func (d *Deck) Init(part Part) {
	if d.clock == nil {
		d.clock = &clock.SyncedLFO{}
	}
	d.part = part
	d.RemoveAll()
	d.Rewind()
}

// Refresh is called once per tick. It advances the phase clock and marks the
// deck as needing an Advance; several refreshes before the next Advance are
// coalesced into one sweep.
func (d *Deck) Refresh() {
	d.clock.Refresh()
	d.needsAdvance = true
}

// Tap forwards a synchronization target to the phase clock.
func (d *Deck) Tap(target uint32) {
	d.clock.Tap(target)
}

// Clock taps the phase clock with the loop length given by the current
// sequencer settings. The owner calls this on every tick of the master clock.
func (d *Deck) Clock() {
	d.Tap(d.part.CurrentSequencerSettings().LoopTicks())
}

// Rewind moves the playhead back to the start of the loop. Notes that are
// still held stay open but are no longer associated with a pressed key, so
// they are closed by the next loop wrap.
func (d *Deck) Rewind() {
	d.clock.Init()
	d.pos = 0
	d.needsAdvance = false
	d.ResetHead()
	d.clearKeySlots()
}

// RemoveAll erases every recorded note.
func (d *Deck) RemoveAll() {
	d.tape = looper.EmptyTape()
	d.head = looper.NullLink()
	d.restored = [looper.MaxNotes]bool{}
	d.clearKeySlots()
}

// Load replaces the tape, e.g. with one restored from storage. The links of
// the given tape are not trusted: both lists are rebuilt from the note
// positions, keeping open notes open, and the deck is rewound.
func (d *Deck) Load(tape looper.Tape) {
	if !tape.Oldest.Valid() || (tape.Newest != looper.NullIndex && !tape.Newest.Valid()) {
		d.fault("load: bad live window %d..%d", tape.Oldest, tape.Newest)
		d.RemoveAll()
		d.Rewind()
		return
	}
	d.tape = tape
	for i := range d.tape.Notes {
		if !d.tape.Contains(looper.Index(i)) {
			d.tape.Notes[i] = looper.Note{Next: looper.NullLink()}
		}
	}
	d.relink(looper.NullIndex)
	d.restored = [looper.MaxNotes]bool{}
	for index := range d.tape.Live {
		d.restored[index] = d.tape.Notes[index].Open()
	}
	d.Rewind()
}

// Tape returns a copy of the recorded notes.
func (d *Deck) Tape() looper.Tape {
	return d.tape.Copy()
}

func (d *Deck) Pos() looper.Pos {
	return d.pos
}

func (d *Deck) Len() int {
	return d.tape.Len()
}

func (d *Deck) IsEmpty() bool {
	return d.head.On == looper.NullIndex
}

// Faults returns how many times the deck has found its lists corrupted and
// rebuilt them.
func (d *Deck) Faults() int {
	return d.faults
}

func (d *Deck) clearKeySlots() {
	for i := range d.noteIndexForKeySlot {
		d.noteIndexForKeySlot[i] = looper.NullIndex
	}
}

func (d *Deck) looping() bool {
	return d.part.CurrentSequencerSettings().PlayMode == looper.PlayModeLooper
}

// fault reports a broken invariant of the linked lists. Builds with the
// looperdebug tag panic; otherwise the fault is logged and counted, and the
// caller repairs the lists.
func (d *Deck) fault(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if strictInvariants {
		panic("deck: " + msg)
	}
	d.faults++
	log.Printf("deck: %s; rebuilding note lists", msg)
}
