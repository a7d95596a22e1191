package deck

import "github.com/vsariola/looper"

// RecordNoteOn records the start of a note at the current playhead position
// and sends the note on to the owner right away. slot identifies the pressed
// key, so that the matching RecordNoteOff can find the note. If the tape is
// full, the oldest note is removed to make room. Returns the tape slot of the
// new note.
func (d *Deck) RecordNoteOn(slot looper.KeySlot, pitch, velocity byte) looper.Index {
	if d.tape.Full() {
		d.RemoveOldestNote()
	}
	if d.tape.Empty() {
		d.tape.Newest = d.tape.Oldest
	} else {
		d.tape.Newest = d.tape.Newest.Next()
	}
	index := d.tape.Newest

	note := &d.tape.Notes[index]
	note.Pitch = pitch
	note.Velocity = velocity
	note.OffPos = d.pos
	note.Next = looper.NullLink()
	d.restored[index] = false
	d.insertOn(d.pos, index)

	if slot.Valid() {
		d.noteIndexForKeySlot[slot] = index
	}
	d.part.InternalNoteOn(pitch, velocity)
	return index
}

// RecordNoteOff records the end of the note started from slot. If the note
// was held through a whole loop, Advance has already closed it and it keeps
// sustaining through the loop; then nothing is recorded and no note off is
// sent.
func (d *Deck) RecordNoteOff(slot looper.KeySlot) {
	if !slot.Valid() {
		return
	}
	index := d.noteIndexForKeySlot[slot]
	if index == looper.NullIndex {
		return
	}
	d.noteIndexForKeySlot[slot] = looper.NullIndex
	d.insertOff(d.pos, index)
	d.part.InternalNoteOff(d.tape.Notes[index].Pitch)
}

// RemoveOldestNote erases the oldest recorded note, turning it off if it is
// sounding.
func (d *Deck) RemoveOldestNote() {
	if d.tape.Empty() {
		return
	}
	d.removeNote(d.tape.Oldest)
	if d.tape.Oldest == d.tape.Newest {
		d.tape.Newest = looper.NullIndex
	} else {
		d.tape.Oldest = d.tape.Oldest.Next()
	}
}

// RemoveNewestNote erases the most recently recorded note, turning it off if
// it is sounding.
func (d *Deck) RemoveNewestNote() {
	if d.tape.Empty() {
		return
	}
	d.removeNote(d.tape.Newest)
	if d.tape.Oldest == d.tape.Newest {
		d.tape.Newest = looper.NullIndex
	} else {
		d.tape.Newest = d.tape.Newest.Prev()
	}
}
