package deck

import "github.com/vsariola/looper"

// list selects one of the two circular lists threaded through the tape.
type list int

const (
	onList list = iota
	offList
)

func (l list) String() string {
	if l == onList {
		return "on-list"
	}
	return "off-list"
}

// of returns the field of link that belongs to this list.
func (l list) of(link *looper.Link) *looper.Index {
	if l == onList {
		return &link.On
	}
	return &link.Off
}

// pos returns the position of the event of note that this list orders by.
func (l list) pos(note *looper.Note) looper.Pos {
	if l == onList {
		return note.OnPos
	}
	return note.OffPos
}

func (d *Deck) next(l list, index looper.Index) looper.Index {
	return *l.of(&d.tape.Notes[index].Next)
}

// insert makes index the new head of the list. An empty list becomes a
// single note linked to itself; otherwise the note is spliced in right after
// the current head.
func (d *Deck) insert(l list, index looper.Index) {
	head := l.of(&d.head)
	if *head == looper.NullIndex {
		*l.of(&d.tape.Notes[index].Next) = index
	} else {
		d.spliceAfter(l, *head, index)
	}
	*head = index
}

func (d *Deck) spliceAfter(l list, after, index looper.Index) {
	afterNext := l.of(&d.tape.Notes[after].Next)
	*l.of(&d.tape.Notes[index].Next) = *afterNext
	*afterNext = index
}

// insertSorted splices index in where its position belongs around the loop,
// i.e. after the note whose position is the closest one at or before it.
// Unlike insert, this is correct even if the position is not the latest one
// passed. The head moves to index only if index was passed more recently
// than the head, as seen from the playhead position now.
func (d *Deck) insertSorted(l list, index looper.Index, now looper.Pos) {
	head := *l.of(&d.head)
	if head == looper.NullIndex {
		d.insert(l, index)
		return
	}
	pos := l.pos(&d.tape.Notes[index])
	after := head
	for n := range d.members(l) {
		next := d.next(l, n)
		if !next.Valid() {
			break
		}
		from := l.pos(&d.tape.Notes[n])
		if pos-from < l.pos(&d.tape.Notes[next])-from {
			after = n
			break
		}
	}
	d.spliceAfter(l, after, index)
	if now-pos <= now-l.pos(&d.tape.Notes[head]) {
		*l.of(&d.head) = index
	}
}

func (d *Deck) insertOn(pos looper.Pos, index looper.Index) {
	d.tape.Notes[index].OnPos = pos
	d.insert(onList, index)
}

func (d *Deck) insertOff(pos looper.Pos, index looper.Index) {
	d.tape.Notes[index].OffPos = pos
	d.insert(offList, index)
}

// predecessor finds the note whose next is target by walking forward from
// target. A healthy list is a single cycle of at most MaxNotes notes, so the
// walk gives up after MaxNotes steps; reaching a null link or running out of
// steps means target is not on a cycle of its own list.
func (d *Deck) predecessor(l list, target looper.Index) (looper.Index, bool) {
	prev := target
	for range looper.MaxNotes {
		next := d.next(l, prev)
		if next == target {
			return prev, true
		}
		if !next.Valid() {
			return looper.NullIndex, false
		}
		prev = next
	}
	return looper.NullIndex, false
}

// unlink removes target from the list. If target was the head, its
// predecessor becomes the head; if it was the only note, the list becomes
// empty.
func (d *Deck) unlink(l list, target looper.Index) bool {
	prev, ok := d.predecessor(l, target)
	if !ok {
		return false
	}
	targetNext := l.of(&d.tape.Notes[target].Next)
	*l.of(&d.tape.Notes[prev].Next) = *targetNext
	*targetNext = looper.NullIndex
	head := l.of(&d.head)
	if prev == target {
		*head = looper.NullIndex
	} else if *head == target {
		*head = prev
	}
	return true
}

// members returns an iterator over every note of the list, starting from the
// head. The iteration stops early at a null link and never takes more than
// MaxNotes steps, even if the list is corrupted.
func (d *Deck) members(l list) func(yield func(looper.Index) bool) {
	return func(yield func(looper.Index) bool) {
		head := *l.of(&d.head)
		if head == looper.NullIndex {
			return
		}
		index := head
		for range looper.MaxNotes {
			if !yield(index) {
				return
			}
			index = d.next(l, index)
			if index == head || !index.Valid() {
				return
			}
		}
	}
}

// removeNote takes target out of both lists and clears its slot. If the note
// is sounding, a note off is sent for it first: a closed note the playhead is
// inside of, in looper mode, or an open note in any mode, as its note on went
// out when it was recorded. A note that cannot be found
// on its lists is a broken invariant: the lists are rebuilt from the tape
// without target instead of searching forever.
func (d *Deck) removeNote(target looper.Index) {
	note := &d.tape.Notes[target]
	sounding := d.NoteIsPlaying(target) && d.looping()
	if note.Open() && !d.restored[target] {
		sounding = true
	}
	d.releaseKeySlot(target)
	d.restored[target] = false
	if sounding {
		d.part.InternalNoteOff(note.Pitch)
	}

	open := note.Open()
	if !d.unlink(onList, target) {
		d.fault("note %d not found on the %v", target, onList)
		d.relink(target)
		d.ResetHead()
	} else if !open && !d.unlink(offList, target) {
		d.fault("note %d not found on the %v", target, offList)
		d.relink(target)
		d.ResetHead()
	}
	*note = looper.Note{Next: looper.NullLink()}
}

// relink rebuilds both lists from scratch out of the live notes of the tape,
// leaving out skip. Each list is ordered by its positions, and notes without
// an off link stay off the off-list. The heads are left at arbitrary notes;
// callers follow up with ResetHead.
func (d *Deck) relink(skip looper.Index) {
	var (
		members [looper.MaxNotes]looper.Index
		open    [looper.MaxNotes]bool
		n       int
	)
	for index := range d.tape.Live {
		if index == skip {
			continue
		}
		open[index] = d.tape.Notes[index].Open()
		members[n] = index
		n++
	}
	for i := range d.tape.Notes {
		d.tape.Notes[i].Next = looper.NullLink()
	}
	d.head = looper.NullLink()

	sorted := members[:n]
	d.sortBy(onList, sorted)
	for _, index := range sorted {
		d.insert(onList, index)
	}
	closed := 0
	for _, index := range members[:n] {
		if !open[index] {
			members[closed] = index
			closed++
		}
	}
	sorted = members[:closed]
	d.sortBy(offList, sorted)
	for _, index := range sorted {
		d.insert(offList, index)
	}
}

// sortBy is an insertion sort on the positions of the list; it is stable and
// does not allocate.
func (d *Deck) sortBy(l list, indices []looper.Index) {
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && l.pos(&d.tape.Notes[indices[j-1]]) > l.pos(&d.tape.Notes[indices[j]]); j-- {
			indices[j-1], indices[j] = indices[j], indices[j-1]
		}
	}
}
