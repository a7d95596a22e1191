package deck

import "github.com/vsariola/looper"

// Advance moves the playhead to the current position of the phase clock and
// plays every event it passed on the way: first the note offs, then the note
// ons, so that a note ending and restarting at the same position does not
// overlap itself. Advance does nothing unless Refresh was called since the
// previous Advance.
//
// A note that is still held when the playhead comes around to its start again
// has been held for a whole loop. Instead of starting it again, its end is
// recorded at its own start, turning it into a note that sustains through the
// whole loop.
func (d *Deck) Advance() {
	if !d.needsAdvance {
		return
	}
	newPos := d.clock.Position()
	if newPos == d.pos {
		// Passed treats an empty interval as a whole loop; a clock that did
		// not move has passed nothing
		d.needsAdvance = false
		return
	}
	play := d.looping()

	d.sweep(offList, newPos, func(index looper.Index) {
		if play {
			d.part.InternalNoteOff(d.tape.Notes[index].Pitch)
		}
	})

	d.sweep(onList, newPos, func(index looper.Index) {
		note := &d.tape.Notes[index]
		if note.Open() {
			// other note offs passed in this same sweep may lie after
			// OnPos, so the off cannot simply go after the head
			note.OffPos = note.OnPos
			d.insertSorted(offList, index, newPos)
			d.releaseKeySlot(index)
			return
		}
		if play {
			d.part.InternalNoteOn(note.Pitch, note.Velocity)
		}
	})

	d.pos = newPos
	d.needsAdvance = false
}

// sweep walks the list from the note after its head, moving the head onto
// every note whose position lies in (d.pos, newPos] and calling visit for it.
// The walk stops at the first note not yet reached, or when it comes back to
// the first note it looked at.
func (d *Deck) sweep(l list, newPos looper.Pos, visit func(looper.Index)) {
	seen := looper.NullIndex
	for range looper.MaxNotes {
		head := l.of(&d.head)
		if *head == looper.NullIndex {
			return
		}
		next := d.next(l, *head)
		if !next.Valid() || next == seen {
			return
		}
		if seen == looper.NullIndex {
			seen = next
		}
		if !looper.Passed(l.pos(&d.tape.Notes[next]), d.pos, newPos) {
			return
		}
		*head = next
		visit(next)
	}
}

// ResetHead points the head of each list at the note that the playhead passed
// most recently, so that the next Advance continues from the right note. It is
// needed whenever the playhead jumps, e.g. after a rewind or a load.
func (d *Deck) ResetHead() {
	d.resetHead(onList)
	d.resetHead(offList)
}

func (d *Deck) resetHead(l list) {
	distance := func(index looper.Index) looper.Pos {
		return d.pos - l.pos(&d.tape.Notes[index])
	}
	best := looper.NullIndex
	for index := range d.members(l) {
		if best == looper.NullIndex || distance(index) < distance(best) {
			best = index
		}
	}
	if best == looper.NullIndex {
		return
	}
	// notes sharing the position have all been passed; the head is the last
	// of them, or the sweep would stop at the second one
	for range looper.MaxNotes {
		next := d.next(l, best)
		if !next.Valid() || distance(next) != distance(best) {
			break
		}
		best = next
	}
	*l.of(&d.head) = best
}

func (d *Deck) releaseKeySlot(index looper.Index) {
	for i, mapped := range d.noteIndexForKeySlot {
		if mapped == index {
			d.noteIndexForKeySlot[i] = looper.NullIndex
		}
	}
}
