// Package player runs a deck in real time. The Player owns the deck and is
// the only one touching it: it runs in its own goroutine, ticking the phase
// clock from a master clock, refreshing the deck, and handling the messages
// other goroutines send it through the Broker.
package player

import (
	"context"
	"log"
	"time"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/clock"
	"github.com/vsariola/looper/deck"
)

type (
	// NoteSink receives the notes the player plays: recorded notes played back
	// by the deck and notes passed through while not recording. The methods
	// are called from the player goroutine and must not block.
	NoteSink interface {
		NoteOn(pitch, velocity byte)
		NoteOff(pitch byte)
	}

	Player struct {
		deck      *deck.Deck
		lfo       *clock.SyncedLFO // nil if the deck runs on some other clock
		settings  looper.SequencerSettings
		recording bool
		keys      keyStack
		sounding  [128]uint8 // how many times each pitch has been started but not stopped
		sink      NoteSink
		broker    *Broker

		tickInterval, refreshInterval time.Duration

		changed bool
	}

	// LogSink prints every note to a logger. Useful when there is no audio
	// output.
	LogSink struct {
		Logger *log.Logger
	}

	// Sinks plays every note on all of its sinks, in order.
	Sinks []NoteSink
)

// New returns a player with an empty tape, driven by a synced LFO.
func New(broker *Broker, sink NoteSink, settings looper.SequencerSettings) *Player {
	lfo := &clock.SyncedLFO{}
	p := NewWithClock(broker, sink, settings, lfo)
	p.lfo = lfo
	return p
}

// NewWithClock returns a player whose deck runs on the given phase clock.
func NewWithClock(broker *Broker, sink NoteSink, settings looper.SequencerSettings, c deck.PhaseClock) *Player {
	p := &Player{broker: broker, sink: sink, settings: settings}
	p.deck = deck.New(c)
	p.deck.Init(p)
	p.keys.clear()
	return p
}

// SetTempo tells the player how often Tick and Refresh are called, so that
// the playhead starts at the right speed before the synchronization to the
// ticks has settled.
func (p *Player) SetTempo(tickInterval, refreshInterval time.Duration) {
	p.tickInterval, p.refreshInterval = tickInterval, refreshInterval
	if p.lfo == nil || refreshInterval <= 0 {
		return
	}
	refreshesPerLoop := float64(p.settings.LoopTicks()) * float64(tickInterval) / float64(refreshInterval)
	if refreshesPerLoop < 1 {
		return
	}
	p.lfo.SetPhaseIncrement(uint32(float64(1<<32) / refreshesPerLoop))
}

// Run ticks and refreshes the player until ctx is cancelled or the player is
// closed through the broker. All sounding notes are stopped before Run
// returns. If tickInterval is not positive, there is no internal master
// clock and the ticks come from ClockMsg messages; call SetTempo before Run
// to give the playhead a starting speed.
func (p *Player) Run(ctx context.Context, tickInterval, refreshInterval time.Duration) error {
	defer close(p.broker.FinishedPlayer)
	defer p.allNotesOff()
	p.SetTempo(tickInterval, refreshInterval)
	var tickC <-chan time.Time
	if tickInterval > 0 {
		ticks := time.NewTicker(tickInterval)
		defer ticks.Stop()
		tickC = ticks.C
	}
	refreshes := time.NewTicker(refreshInterval)
	defer refreshes.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.broker.ClosePlayer:
			return nil
		case <-tickC:
			p.Tick()
		case <-refreshes.C:
			p.Refresh()
		}
	}
}

// Tick is called on every tick of the master clock.
func (p *Player) Tick() {
	p.deck.Clock()
}

// Refresh handles the pending messages, then moves the playhead and plays the
// notes it passed. If the tape changed, the new status is sent to the model.
func (p *Player) Refresh() {
	p.processMessages()
	open := p.openNotes()
	p.deck.Refresh()
	p.deck.Advance()
	if p.openNotes() != open {
		p.changed = true
	}
	if p.changed {
		TrySend(p.broker.ToModel, MsgToModel{Status: p.Status()})
		p.changed = false
	}
}

func (p *Player) Status() Status {
	return Status{
		Pos:       p.deck.Pos(),
		Tape:      p.deck.Tape(),
		Settings:  p.settings,
		Recording: p.recording,
		Faults:    p.deck.Faults(),
	}
}

func (p *Player) processMessages() {
loop:
	for {
		select {
		case msg := <-p.broker.ToPlayer:
			p.handle(msg)
		default:
			break loop
		}
	}
}

func (p *Player) handle(msg any) {
	switch m := msg.(type) {
	case NoteEvent:
		if m.On {
			p.noteOn(m.Note, m.Velocity)
		} else {
			p.noteOff(m.Note)
		}
	case ClockMsg:
		p.Tick()
	case StartMsg:
		p.deck.Rewind()
	case RecordingMsg:
		p.recording = m.bool
	case RemoveOldestMsg:
		p.deck.RemoveOldestNote()
		p.changed = true
	case RemoveNewestMsg:
		p.deck.RemoveNewestNote()
		p.changed = true
	case RemoveAllMsg:
		p.allNotesOff()
		p.deck.RemoveAll()
		p.changed = true
	case RewindMsg:
		p.deck.Rewind()
	case LoadMsg:
		p.allNotesOff()
		p.deck.Load(m.Tape)
		p.changed = true
	case SettingsMsg:
		loopTicks := p.settings.LoopTicks()
		p.settings = m.Settings
		if p.settings.PlayMode != looper.PlayModeLooper {
			p.allNotesOff()
		}
		if p.settings.LoopTicks() != loopTicks {
			p.SetTempo(p.tickInterval, p.refreshInterval)
		}
	case QueryMsg:
		TrySend(m.Reply, p.Status())
	default:
		// ignore unknown messages
	}
}

func (p *Player) noteOn(pitch, velocity byte) {
	if !p.recording {
		p.InternalNoteOn(pitch, velocity)
		return
	}
	p.deck.RecordNoteOn(p.keys.press(pitch), pitch, velocity)
	p.changed = true
}

func (p *Player) noteOff(pitch byte) {
	if slot, ok := p.keys.release(pitch); ok {
		p.deck.RecordNoteOff(slot)
		p.changed = true
		return
	}
	p.InternalNoteOff(pitch)
}

func (p *Player) openNotes() (n int) {
	if p.deck.IsEmpty() {
		return 0
	}
	t := p.deck.Tape()
	for index := range t.Live {
		if t.Notes[index].Open() {
			n++
		}
	}
	return n
}

// CurrentSequencerSettings, InternalNoteOn and InternalNoteOff make the player
// the owner of its deck.
func (p *Player) CurrentSequencerSettings() looper.SequencerSettings {
	return p.settings
}

func (p *Player) InternalNoteOn(pitch, velocity byte) {
	pitch &= 0x7F
	if p.sounding[pitch] < 0xFF {
		p.sounding[pitch]++
	}
	p.sink.NoteOn(pitch, velocity)
}

func (p *Player) InternalNoteOff(pitch byte) {
	pitch &= 0x7F
	if p.sounding[pitch] == 0 {
		return
	}
	p.sounding[pitch]--
	p.sink.NoteOff(pitch)
}

func (p *Player) allNotesOff() {
	for pitch, n := range p.sounding {
		for range n {
			p.sink.NoteOff(byte(pitch))
		}
		p.sounding[pitch] = 0
	}
}

func (s LogSink) NoteOn(pitch, velocity byte) {
	s.logger().Printf("note on  %3d %3d", pitch, velocity)
}

func (s LogSink) NoteOff(pitch byte) {
	s.logger().Printf("note off %3d", pitch)
}

func (s LogSink) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

func (s Sinks) NoteOn(pitch, velocity byte) {
	for _, sink := range s {
		sink.NoteOn(pitch, velocity)
	}
}

func (s Sinks) NoteOff(pitch byte) {
	for _, sink := range s {
		sink.NoteOff(pitch)
	}
}
