// Package render bounces tapes to audio offline, through the monitor synth.
package render

import (
	"errors"
	"time"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/deck"
	"github.com/vsariola/looper/monitor"
)

// BlockSize is the number of samples rendered between two deck refreshes.
const BlockSize = 64

var ErrEmptyLoop = errors.New("loop is shorter than one sample")

type (
	// stepClock is a phase clock that is wherever the renderer puts it.
	stepClock struct {
		pos looper.Pos
	}

	// part plays the deck on the monitor, always in looper mode.
	part struct {
		monitor  *monitor.Monitor
		settings looper.SequencerSettings
	}
)

func (c *stepClock) Init()                { c.pos = 0 }
func (c *stepClock) Refresh()             {}
func (c *stepClock) Tap(uint32)           {}
func (c *stepClock) Position() looper.Pos { return c.pos }

func (p *part) CurrentSequencerSettings() looper.SequencerSettings { return p.settings }
func (p *part) InternalNoteOn(pitch, velocity byte)                { p.monitor.NoteOn(pitch, velocity) }
func (p *part) InternalNoteOff(pitch byte)                         { p.monitor.NoteOff(pitch) }

// Tape renders loops passes of tape, each lasting loopDuration, at
// sampleRate. The loop is played once before the rendered passes without
// keeping the audio, so that notes held over the end of the loop already
// sound at the start.
func Tape(tape looper.Tape, loopDuration time.Duration, sampleRate, loops int) ([]float32, error) {
	samplesPerLoop := int(loopDuration.Seconds() * float64(sampleRate))
	if samplesPerLoop <= 0 {
		return nil, ErrEmptyLoop
	}
	loops = max(loops, 1)
	m := monitor.New(sampleRate)
	c := &stepClock{}
	d := deck.New(c)
	settings := looper.DefaultSequencerSettings()
	settings.PlayMode = looper.PlayModeLooper
	d.Init(&part{monitor: m, settings: settings})
	d.Load(tape)

	out := make([]float32, samplesPerLoop*loops)
	scratch := make([]float32, BlockSize)
	for pass := 0; pass <= loops; pass++ {
		for start := 0; start < samplesPerLoop; start += BlockSize {
			end := min(start+BlockSize, samplesPerLoop)
			c.pos = looper.Pos(uint64(start) << 16 / uint64(samplesPerLoop))
			d.Refresh()
			d.Advance()
			buf := scratch[:end-start]
			if pass > 0 {
				offset := (pass - 1) * samplesPerLoop
				buf = out[offset+start : offset+end]
			}
			m.Render(buf)
		}
	}
	return out, nil
}
