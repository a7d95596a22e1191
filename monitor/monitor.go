// Package monitor is a tiny sine synthesizer for listening to a deck. It is
// not meant to sound good: each voice is a sine with a linear attack and
// release, just enough to hear what the loop plays.
package monitor

import (
	"math"
	"sync/atomic"

	"github.com/viterin/vek/vek32"
)

const (
	NumVoices = 8
	// Gain is applied to the mix of all voices, so that a full chord does not
	// clip.
	Gain = 1.0 / NumVoices
	// EnvelopeTime is the time in seconds for a voice to rise to its level
	// or fall silent.
	EnvelopeTime = 0.005
)

type (
	// Monitor is fed notes by the player goroutine and rendered by the audio
	// goroutine. NoteOn and NoteOff never block: if the audio goroutine falls
	// behind, the notes are dropped.
	Monitor struct {
		events     chan event
		dropped    atomic.Int64
		voices     [NumVoices]voice
		sampleRate float32
		tmp        []float32
		age        int
	}

	event struct {
		on       bool
		pitch    byte
		velocity byte
	}

	voice struct {
		pitch  byte
		held   bool
		active bool
		age    int
		phase  float32
		inc    float32
		level  float32
		target float32
	}
)

func New(sampleRate int) *Monitor {
	return &Monitor{
		events:     make(chan event, 256),
		sampleRate: float32(sampleRate),
	}
}

func (m *Monitor) NoteOn(pitch, velocity byte) {
	m.send(event{on: true, pitch: pitch, velocity: velocity})
}

func (m *Monitor) NoteOff(pitch byte) {
	m.send(event{pitch: pitch})
}

func (m *Monitor) send(e event) {
	select {
	case m.events <- e:
	default:
		m.dropped.Add(1)
	}
}

// Dropped returns the number of notes lost because Render was not called
// often enough.
func (m *Monitor) Dropped() int64 {
	return m.dropped.Load()
}

// Render overwrites buf with the next mono samples.
func (m *Monitor) Render(buf []float32) {
	m.handleEvents()
	vek32.Zeros_Into(buf, len(buf))
	if cap(m.tmp) < len(buf) {
		m.tmp = make([]float32, len(buf))
	}
	tmp := m.tmp[:len(buf)]
	step := 1 / (EnvelopeTime * m.sampleRate)
	for i := range m.voices {
		v := &m.voices[i]
		if !v.active {
			continue
		}
		for j := range tmp {
			switch {
			case v.level < v.target:
				v.level = min(v.level+step, v.target)
			case v.level > v.target:
				v.level = max(v.level-step, v.target)
			}
			tmp[j] = v.level * float32(math.Sin(float64(v.phase)))
			v.phase += v.inc
			if v.phase > 2*math.Pi {
				v.phase -= 2 * math.Pi
			}
		}
		vek32.Add_Inplace(buf, tmp)
		if !v.held && v.level == 0 {
			v.active = false
		}
	}
	vek32.MulNumber_Inplace(buf, Gain)
}

// Active returns the number of voices still sounding. Not safe to call
// concurrently with Render.
func (m *Monitor) Active() int {
	n := 0
	for _, v := range m.voices {
		if v.active {
			n++
		}
	}
	return n
}

func (m *Monitor) handleEvents() {
	for {
		select {
		case e := <-m.events:
			if e.on {
				m.trigger(e.pitch, e.velocity)
			} else {
				m.release(e.pitch)
			}
		default:
			return
		}
	}
}

// trigger starts the note on a free voice, or steals the oldest one.
func (m *Monitor) trigger(pitch, velocity byte) {
	m.age++
	best := 0
	for i, v := range m.voices {
		if !v.active {
			best = i
			break
		}
		if v.age < m.voices[best].age {
			best = i
		}
	}
	freq := 440 * math.Pow(2, (float64(pitch)-69)/12)
	v := &m.voices[best]
	*v = voice{
		pitch:  pitch,
		held:   true,
		active: true,
		age:    m.age,
		inc:    float32(2 * math.Pi * freq / float64(m.sampleRate)),
		level:  v.level, // a stolen voice starts from where it was, avoiding a click
		target: float32(velocity) / 127,
	}
}

// release stops the oldest held voice playing the pitch.
func (m *Monitor) release(pitch byte) {
	found := -1
	for i, v := range m.voices {
		if v.held && v.pitch == pitch && (found < 0 || v.age < m.voices[found].age) {
			found = i
		}
	}
	if found >= 0 {
		m.voices[found].held = false
		m.voices[found].target = 0
	}
}
