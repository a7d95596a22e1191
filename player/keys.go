package player

import "github.com/vsariola/looper"

// keyStack assigns key slots to the keys held down while recording, so that
// the deck can find the note to close when a key is released.
type keyStack [looper.NoteStackSize]struct {
	pitch byte
	held  bool
}

func (k *keyStack) clear() {
	*k = keyStack{}
}

// press returns the first free slot. If every slot is taken, it returns an
// invalid slot: the note is still recorded, but its end is only found when
// the loop wraps around.
func (k *keyStack) press(pitch byte) looper.KeySlot {
	for i := range k {
		if !k[i].held {
			k[i].pitch, k[i].held = pitch, true
			return looper.KeySlot(i)
		}
	}
	return looper.NoteStackSize
}

// release frees a slot held by a key with the pitch.
func (k *keyStack) release(pitch byte) (looper.KeySlot, bool) {
	for i := len(k) - 1; i >= 0; i-- {
		if k[i].held && k[i].pitch == pitch {
			k[i].held = false
			return looper.KeySlot(i), true
		}
	}
	return 0, false
}
