package deck

import (
	"fmt"

	"github.com/vsariola/looper"
)

func (d *Deck) Heads() looper.Link {
	return d.head
}

func (d *Deck) SetLink(index looper.Index, link looper.Link) {
	d.tape.Notes[index].Next = link
}

// CheckLists returns an error describing the first broken invariant of the
// note lists: each must be one simple cycle through exactly the live notes
// (the closed ones, for the off-list), ordered by position around the loop.
func (d *Deck) CheckLists() error {
	closed := 0
	for index := range d.tape.Live {
		if !d.tape.Notes[index].Open() {
			closed++
		}
	}
	if err := d.checkList(onList, d.tape.Len(), func(*looper.Note) bool { return true }); err != nil {
		return err
	}
	return d.checkList(offList, closed, func(n *looper.Note) bool { return !n.Open() })
}

func (d *Deck) checkList(l list, want int, member func(*looper.Note) bool) error {
	head := *l.of(&d.head)
	if want == 0 {
		if head != looper.NullIndex {
			return fmt.Errorf("%v: head %d on an empty list", l, head)
		}
		return nil
	}
	if !d.tape.Contains(head) {
		return fmt.Errorf("%v: head %d is not a live note", l, head)
	}
	var seen [looper.MaxNotes]bool
	descents := 0
	index := head
	for i := 0; i < want; i++ {
		if !d.tape.Contains(index) || !member(&d.tape.Notes[index]) {
			return fmt.Errorf("%v: note %d should not be on the list", l, index)
		}
		if seen[index] {
			return fmt.Errorf("%v: note %d visited twice", l, index)
		}
		seen[index] = true
		next := d.next(l, index)
		if !next.Valid() {
			return fmt.Errorf("%v: note %d has a null link", l, index)
		}
		if l.pos(&d.tape.Notes[next]) < l.pos(&d.tape.Notes[index]) {
			descents++
		}
		index = next
	}
	if index != head {
		return fmt.Errorf("%v: walking %d notes did not return to the head", l, want)
	}
	if descents > 1 {
		return fmt.Errorf("%v: not ordered around the loop", l)
	}
	return nil
}
