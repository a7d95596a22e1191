package storage_test

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/deck"
	"github.com/vsariola/looper/storage"
)

type manualClock struct{ pos looper.Pos }

func (c *manualClock) Init()                { c.pos = 0 }
func (c *manualClock) Refresh()             {}
func (c *manualClock) Tap(uint32)           {}
func (c *manualClock) Position() looper.Pos { return c.pos }

type part struct{ events []string }

func (p *part) CurrentSequencerSettings() looper.SequencerSettings {
	return looper.DefaultSequencerSettings()
}
func (p *part) InternalNoteOn(pitch, velocity byte) {
	p.events = append(p.events, fmt.Sprintf("on %d %d", pitch, velocity))
}
func (p *part) InternalNoteOff(pitch byte) {
	p.events = append(p.events, fmt.Sprintf("off %d", pitch))
}

func newDeck() (*deck.Deck, *manualClock, *part) {
	c := &manualClock{}
	p := &part{}
	d := deck.New(c)
	d.Init(p)
	return d, c, p
}

func moveTo(d *deck.Deck, c *manualClock, pos looper.Pos) {
	c.pos = pos
	d.Refresh()
	d.Advance()
}

// recordSome leaves a deck with closed notes, one note wrapping past the end
// of the loop and one note still open. All positions are multiples of 8 so
// that they survive packing.
func recordSome(t *testing.T) *deck.Deck {
	d, c, _ := newDeck()
	moveTo(d, c, 800)
	d.RecordNoteOn(0, 60, 100)
	moveTo(d, c, 1600)
	d.RecordNoteOn(1, 64, 90)
	moveTo(d, c, 2400)
	d.RecordNoteOff(0)
	moveTo(d, c, 4000)
	d.RecordNoteOff(1)
	moveTo(d, c, 64000)
	d.RecordNoteOn(2, 67, 80)
	moveTo(d, c, 400)
	d.RecordNoteOff(2)
	moveTo(d, c, 3200)
	d.RecordNoteOn(3, 72, 70)
	require.Equal(t, 4, d.Len())
	return d
}

func playLoops(d *deck.Deck) []string {
	c := &manualClock{}
	p := &part{}
	e := deck.New(c)
	e.Init(p)
	e.Load(d.Tape())
	for loop := 0; loop < 3; loop++ {
		for pos := 0; pos < 1<<16; pos += 200 {
			moveTo(e, c, looper.Pos(pos))
		}
	}
	return p.events
}

func TestPackLayout(t *testing.T) {
	tape := looper.EmptyTape()
	tape.Notes[0] = looper.Note{Next: looper.Link{On: 0, Off: 0}, OnPos: 0x1238, OffPos: 0xFFF8, Pitch: 60, Velocity: 127}
	tape.Notes[1] = looper.Note{Next: looper.NullLink(), OnPos: 0x0010, Pitch: 62, Velocity: 1}
	tape.Oldest, tape.Newest = 0, 1

	b := storage.Pack(tape)
	require.Len(t, b, storage.RecordSize)
	assert := assert.New(t)
	assert.Equal(98, storage.RecordSize)
	assert.Equal([]byte{0x47, 0x02, 0xFF, 0x1F, 60, 127}, b[0:6])
	assert.Equal([]byte{0x02, 0x80, 0x00, 0x00, 62, 1}, b[6:12])
	assert.Equal([]byte{0, 1}, b[96:])

	empty := storage.Pack(looper.EmptyTape())
	assert.Equal(byte(0xFF), empty[97])
	assert.Equal(make([]byte, 96), empty[:96])
}

func TestUnpackRejectsBadRecords(t *testing.T) {
	good := storage.Pack(recordSome(t).Tape())

	_, err := storage.Unpack(good[:50])
	assert.ErrorIs(t, err, storage.ErrShortRecord)

	_, err = storage.Unpack(append(append([]byte(nil), good...), 0))
	assert.ErrorIs(t, err, storage.ErrCorrupt)

	bad := append([]byte(nil), good...)
	bad[96] = 16
	_, err = storage.Unpack(bad)
	assert.ErrorIs(t, err, storage.ErrCorrupt)

	bad = append([]byte(nil), good...)
	bad[97] = 0x20
	_, err = storage.Unpack(bad)
	assert.ErrorIs(t, err, storage.ErrCorrupt)

	bad = append([]byte(nil), good...)
	bad[3] |= 0x20 // bit 13 of the first off position
	_, err = storage.Unpack(bad)
	assert.ErrorIs(t, err, storage.ErrCorrupt)

	_, err = storage.Unpack(good)
	assert.NoError(t, err)
}

func TestUnpackTruncatesPositions(t *testing.T) {
	tape := looper.EmptyTape()
	tape.Notes[5] = looper.Note{Next: looper.Link{On: 5, Off: 5}, OnPos: 0x1237, OffPos: 0x0007, Pitch: 1}
	tape.Oldest, tape.Newest = 5, 5

	got, err := storage.Unpack(storage.Pack(tape))
	require.NoError(t, err)
	note := got.Notes[5]
	assert.Equal(t, storage.Truncate(0x1237), note.OnPos)
	assert.Equal(t, looper.Pos(0x1230), note.OnPos)
	assert.Equal(t, looper.Pos(0), note.OffPos)
	assert.False(t, note.Open())
	assert.Equal(t, 1, got.Len())
}

func TestPackedTapePlaysTheSame(t *testing.T) {
	d := recordSome(t)
	tape, err := storage.Unpack(storage.Pack(d.Tape()))
	require.NoError(t, err)

	want := d.Tape()
	require.Equal(t, want.Oldest, tape.Oldest)
	require.Equal(t, want.Newest, tape.Newest)
	for index := range want.Live {
		w, g := want.Notes[index], tape.Notes[index]
		assert.Equal(t, [4]any{w.OnPos, w.OffPos, w.Pitch, w.Velocity}, [4]any{g.OnPos, g.OffPos, g.Pitch, g.Velocity}, "note %d", index)
		assert.Equal(t, w.Open(), g.Open(), "note %d", index)
	}

	loaded := deck.New(&manualClock{})
	loaded.Init(&part{})
	loaded.Load(tape)
	wantEvents := playLoops(d)
	assert.NotEmpty(t, wantEvents)
	assert.Equal(t, wantEvents, playLoops(loaded))
}

func TestSnapshotYAML(t *testing.T) {
	d := recordSome(t)
	settings := looper.DefaultSequencerSettings()
	s := storage.NewSnapshot(d.Tape(), &settings)
	require.Len(t, s.Notes, 4)
	assert.True(t, s.Notes[3].Open)

	var buf bytes.Buffer
	require.NoError(t, storage.WriteSnapshot(&buf, s))
	assert.Contains(t, buf.String(), "play_mode: looper")

	got, err := storage.ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	tape, err := got.Tape()
	require.NoError(t, err)
	assert.Equal(t, 4, tape.Len())
	assert.Equal(t, looper.Index(0), tape.Oldest)
	assert.Equal(t, playLoops(d), playLoops(deckWith(tape)))
}

func deckWith(tape looper.Tape) *deck.Deck {
	d := deck.New(&manualClock{})
	d.Init(&part{})
	d.Load(tape)
	return d
}

func TestSnapshotValidation(t *testing.T) {
	_, err := storage.ReadSnapshot(strings.NewReader("id: not-a-uuid\nnotes: []\n"))
	assert.ErrorIs(t, err, storage.ErrBadID)

	var sb strings.Builder
	sb.WriteString("notes:\n")
	for i := 0; i <= looper.MaxNotes; i++ {
		sb.WriteString("  - {on: 0, off: 8, pitch: 60, velocity: 100}\n")
	}
	_, err = storage.ReadSnapshot(strings.NewReader(sb.String()))
	assert.ErrorIs(t, err, storage.ErrTooManyNotes)

	_, err = storage.ReadSnapshot(strings.NewReader("settings: {play_mode: shuffle}\n"))
	assert.ErrorIs(t, err, looper.ErrUnknownPlayMode)
}

func TestSaveAndLoadFiles(t *testing.T) {
	d := recordSome(t)
	s := storage.NewSnapshot(d.Tape(), nil)
	dir := t.TempDir()
	for _, name := range []string{"tape.yml", "tape.bin"} {
		path := filepath.Join(dir, name)
		require.NoError(t, storage.Save(path, s))
		got, err := storage.Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, s.Notes, got.Notes, name)
		assert.Nil(t, got.Settings, name)
	}
	_, err := storage.Load(filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}

func TestAutoSaverCoalesces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto.yaml")
	a := storage.NewAutoSaver(path, 20*time.Millisecond, nil)
	tape := looper.EmptyTape()
	for i := 0; i < 5; i++ {
		tape.Newest = looper.Index(i)
		tape.Notes[i] = looper.Note{Next: looper.Link{On: looper.Index(i), Off: looper.Index(i)}, OnPos: looper.Pos(i * 8), OffPos: looper.Pos(i*8 + 8), Pitch: 60}
		a.Save(storage.NewSnapshot(tape, nil))
	}
	require.Eventually(t, func() bool {
		s, err := storage.Load(path)
		return err == nil && len(s.Notes) == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, a.Saves(), 1)
}

func TestAutoSaverFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto.bin")
	a := storage.NewAutoSaver(path, time.Hour, nil)
	require.NoError(t, a.Flush())
	assert.Equal(t, 0, a.Saves())

	a.Save(storage.NewSnapshot(recordSome(t).Tape(), nil))
	require.NoError(t, a.Flush())
	require.NoError(t, a.Flush())
	assert.Equal(t, 1, a.Saves())
	s, err := storage.Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Notes, 4)
}
