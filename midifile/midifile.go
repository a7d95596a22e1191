// Package midifile converts tapes to and from Standard MIDI Files.
//
// A loop lasts SequencerSettings.LoopTicks ticks of the 24 PPQN master clock;
// in the file, the same loop lasts LoopTicks*Resolution/24 MIDI ticks.
package midifile

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/vsariola/looper"
)

type (
	Options struct {
		Settings   looper.SequencerSettings
		BPM        float64
		Resolution uint16 // MIDI ticks per quarter note
		Channel    uint8
		Loops      int // how many times the loop is written out
	}

	event struct {
		tick     uint64
		off      bool
		pitch    byte
		velocity byte
	}
)

const masterPPQN = 24

var (
	ErrEmptyLoop     = errors.New("loop length is zero")
	ErrTimeFormat    = errors.New("only metric time formats are supported")
	ErrNoNotes       = errors.New("no notes in the midi file")
	ErrBadResolution = errors.New("resolution must be a positive multiple of 24")
)

func DefaultOptions() Options {
	return Options{
		Settings:   looper.DefaultSequencerSettings(),
		BPM:        120,
		Resolution: 96,
		Loops:      1,
	}
}

func (o *Options) loopLength() (uint64, error) {
	if o.Resolution == 0 || o.Resolution%masterPPQN != 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadResolution, o.Resolution)
	}
	l := uint64(o.Settings.LoopTicks()) * uint64(o.Resolution) / masterPPQN
	if l == 0 {
		return 0, ErrEmptyLoop
	}
	return l, nil
}

func toTick(p looper.Pos, loop uint64) uint64 {
	return uint64(p) * loop >> 16
}

func toPos(tick, loop uint64) looper.Pos {
	return looper.Pos((tick % loop) << 16 / loop)
}

// Export writes the closed notes of the tape as they would be played back,
// repeating the loop Options.Loops times. Notes that end at or before their
// start wrap past the end of the loop, and a note whose end equals its start
// sustains for the whole loop. Open notes are left out: they do not play
// until they are closed. The file has a tempo track and one note track.
func Export(w io.Writer, tape looper.Tape, o Options) error {
	loop, err := o.loopLength()
	if err != nil {
		return err
	}
	loops := max(o.Loops, 1)
	var events []event
	for index := range tape.Live {
		note := &tape.Notes[index]
		if note.Open() {
			continue
		}
		on, off := toTick(note.OnPos, loop), toTick(note.OffPos, loop)
		if off <= on {
			off += loop
		}
		for k := range uint64(loops) {
			events = append(events,
				event{tick: k*loop + on, pitch: note.Pitch, velocity: note.Velocity},
				event{tick: k*loop + off, off: true, pitch: note.Pitch})
		}
	}
	// a note ending and one starting on the same tick: end first, like the
	// deck plays them
	slices.SortStableFunc(events, func(a, b event) int {
		switch {
		case a.tick != b.tick:
			return cmp.Compare(a.tick, b.tick)
		case a.off != b.off:
			if a.off {
				return -1
			}
			return 1
		}
		return 0
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(o.Resolution)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(o.BPM))
	tempo.Close(0)
	if err := s.Add(tempo); err != nil {
		return fmt.Errorf("adding tempo track: %w", err)
	}

	var notes smf.Track
	var last uint64
	for _, e := range events {
		delta := uint32(e.tick - last)
		last = e.tick
		if e.off {
			notes.Add(delta, midi.NoteOff(o.Channel, e.pitch))
		} else {
			notes.Add(delta, midi.NoteOn(o.Channel, e.pitch, e.velocity))
		}
	}
	end := uint64(loops) * loop
	var tail uint32
	if end > last {
		tail = uint32(end - last)
	}
	notes.Close(tail)
	if err := s.Add(notes); err != nil {
		return fmt.Errorf("adding note track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("writing midi file: %w", err)
	}
	return nil
}

// Import reads the notes that start within the first loop of a MIDI file into
// a tape, oldest first, quantized to loop positions. Notes on all channels
// and tracks are read; Options.Channel, BPM and Loops are ignored. Only the
// first MaxNotes notes fit; the number of notes left out is returned. A note
// lasting a loop or longer becomes a note sustaining for the whole loop, and
// a note that never ends is taken to last until the end of its track.
func Import(r io.Reader, o Options) (looper.Tape, int, error) {
	tape := looper.EmptyTape()
	s, err := smf.ReadFrom(r)
	if err != nil {
		return tape, 0, fmt.Errorf("reading midi file: %w", err)
	}
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return tape, 0, ErrTimeFormat
	}
	o.Resolution = uint16(mt)
	loop, err := o.loopLength()
	if err != nil {
		return tape, 0, err
	}

	type span struct {
		start, end uint64
		pitch, vel byte
	}
	var spans []span
	for _, track := range s.Tracks {
		var tick uint64
		held := map[[2]uint8]int{} // channel and key to index in spans
		for _, ev := range track {
			tick += uint64(ev.Delta)
			msg := midi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				if i, ok := held[[2]uint8{ch, key}]; ok {
					spans[i].end = tick
				}
				held[[2]uint8{ch, key}] = len(spans)
				spans = append(spans, span{start: tick, end: ^uint64(0), pitch: key, vel: vel})
			case msg.GetNoteEnd(&ch, &key):
				if i, ok := held[[2]uint8{ch, key}]; ok {
					spans[i].end = tick
					delete(held, [2]uint8{ch, key})
				}
			}
		}
		for _, i := range held {
			spans[i].end = tick
		}
	}
	slices.SortStableFunc(spans, func(a, b span) int { return cmp.Compare(a.start, b.start) })
	i := slices.IndexFunc(spans, func(s span) bool { return s.start >= loop })
	if i >= 0 {
		spans = spans[:i]
	}
	if len(spans) == 0 {
		return tape, 0, ErrNoNotes
	}
	dropped := max(len(spans)-looper.MaxNotes, 0)
	spans = spans[:len(spans)-dropped]

	for i, sp := range spans {
		index := looper.Index(i)
		on := toPos(sp.start, loop)
		var off looper.Pos
		switch length := sp.end - sp.start; {
		case length >= loop:
			off = on
		case length == 0:
			off = on + 1
		default:
			off = toPos(sp.end, loop)
		}
		tape.Notes[i] = looper.Note{
			Next:     looper.Link{On: looper.NullIndex, Off: index},
			OnPos:    on,
			OffPos:   off,
			Pitch:    sp.pitch,
			Velocity: sp.vel,
		}
		tape.Newest = index
	}
	return tape, dropped, nil
}
