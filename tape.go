package looper

type (
	// Link holds the slots of the following note in the on-list and the
	// off-list. Either can be NullIndex: a note with a null Off link is still
	// held, i.e. its end has not been recorded yet.
	Link struct {
		On  Index
		Off Index
	}

	// Note is one recorded note. OnPos and OffPos are positions in the loop,
	// not durations, so a note can wrap past the end of the loop.
	Note struct {
		Next     Link `yaml:"-"`
		OnPos    Pos
		OffPos   Pos
		Pitch    byte
		Velocity byte
	}

	// Tape is the fixed capacity store of recorded notes. The live notes are
	// the slots from Oldest to Newest, walking forward and wrapping. An empty
	// tape has Newest == NullIndex; Oldest then tells where the next recorded
	// note will go.
	Tape struct {
		Notes  [MaxNotes]Note
		Oldest Index
		Newest Index
	}
)

// NullLink returns a link that points nowhere in either list.
func NullLink() Link {
	return Link{On: NullIndex, Off: NullIndex}
}

// Open returns true if the end of the note has not been recorded yet.
func (n Note) Open() bool {
	return n.Next.Off == NullIndex
}

// EmptyTape returns a tape with no live notes and all links cleared.
func EmptyTape() Tape {
	var t Tape
	for i := range t.Notes {
		t.Notes[i].Next = NullLink()
	}
	t.Newest = NullIndex
	return t
}

// Copy makes a copy of the Tape. Tape contains no references, so this is just
// a value copy, but the method keeps call sites uniform with the other data
// types.
func (t Tape) Copy() Tape {
	return t
}

func (t Tape) Empty() bool {
	return t.Newest == NullIndex
}

// Len returns the number of live notes.
func (t Tape) Len() int {
	if t.Empty() {
		return 0
	}
	return int((t.Newest+MaxNotes-t.Oldest)%MaxNotes) + 1
}

func (t Tape) Full() bool {
	return t.Len() == MaxNotes
}

// Live can be iterated to get the indices of the live notes, from the oldest
// to the newest.
func (t Tape) Live(yield func(Index) bool) {
	n := t.Len()
	index := t.Oldest
	for range n {
		if !yield(index) {
			return
		}
		index = index.Next()
	}
}

// Contains reports whether index is one of the live slots.
func (t Tape) Contains(index Index) bool {
	if !index.Valid() || t.Empty() {
		return false
	}
	return int((index+MaxNotes-t.Oldest)%MaxNotes) < t.Len()
}
