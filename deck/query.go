package deck

import "github.com/vsariola/looper"

// NoteIsPlaying returns true if the playhead is between the start and the
// end of a recorded note. Advance sends the note on when the playhead reaches
// the start and the note off when it reaches the end, so the note sounds from
// OnPos up to but not including OffPos. A note whose end is at its start
// sustains through the whole loop. Open notes never count as playing: their
// end is not known yet.
func (d *Deck) NoteIsPlaying(index looper.Index) bool {
	if !d.tape.Contains(index) {
		return false
	}
	note := &d.tape.Notes[index]
	if note.Open() {
		return false
	}
	return note.OnPos == note.OffPos || d.pos-note.OnPos < note.OffPos-note.OnPos
}

// NoteFractionCompleted tells how far the playhead is through the note, as a
// fraction of 65536. Useful e.g. for modulating a voice over the length of the
// note.
func (d *Deck) NoteFractionCompleted(index looper.Index) uint16 {
	if !index.Valid() {
		return 0
	}
	note := &d.tape.Notes[index]
	completed := uint32(d.pos - note.OnPos)
	length := uint32(note.OffPos - 1 - note.OnPos)
	if length == 0 {
		return 0xFFFF
	}
	fraction := (completed << 16) / length
	if fraction > 0xFFFF {
		return 0xFFFF
	}
	return uint16(fraction)
}

func (d *Deck) NotePitch(index looper.Index) byte {
	if !index.Valid() {
		return 0
	}
	return d.tape.Notes[index].Pitch
}

// NoteAgeOrdinal returns 0 for the oldest note, 1 for the next one and so on.
func (d *Deck) NoteAgeOrdinal(index looper.Index) uint8 {
	if !index.Valid() {
		return 0
	}
	return uint8((index + looper.MaxNotes - d.tape.Oldest) % looper.MaxNotes)
}
