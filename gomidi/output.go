package gomidi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Output plays the notes of the player on a MIDI output port. It implements
// player.NoteSink.
type Output struct {
	out     drivers.Out
	channel uint8

	mu     sync.Mutex
	failed int
	err    error
}

var ErrNoOutput = errors.New("no MIDI output found")

// OpenOutput opens the first output of driver whose name starts with
// namePrefix.
func OpenOutput(driver drivers.Driver, namePrefix string, channel uint8) (*Output, error) {
	if driver == nil {
		return nil, ErrNoDriver
	}
	outs, err := driver.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI outputs: %w", err)
	}
	for _, out := range outs {
		if strings.HasPrefix(out.String(), namePrefix) {
			return NewOutput(out, channel)
		}
	}
	return nil, fmt.Errorf("%w starting with %q", ErrNoOutput, namePrefix)
}

// NewOutput opens out, if it is not open yet, and sends the notes to it on
// channel.
func NewOutput(out drivers.Out, channel uint8) (*Output, error) {
	if channel > 15 {
		return nil, fmt.Errorf("MIDI channel %d out of range", channel)
	}
	if !out.IsOpen() {
		if err := out.Open(); err != nil {
			return nil, fmt.Errorf("opening MIDI output %v: %w", out, err)
		}
	}
	return &Output{out: out, channel: channel}, nil
}

func (o *Output) String() string {
	return o.out.String()
}

func (o *Output) NoteOn(pitch, velocity byte) {
	o.send(midi.NoteOn(o.channel, pitch, velocity))
}

func (o *Output) NoteOff(pitch byte) {
	o.send(midi.NoteOff(o.channel, pitch))
}

func (o *Output) send(msg midi.Message) {
	if err := o.out.Send(msg); err != nil {
		o.mu.Lock()
		o.failed++
		o.err = err
		o.mu.Unlock()
	}
}

// Failed returns how many messages could not be sent, and the last error.
func (o *Output) Failed() (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failed, o.err
}

func (o *Output) Close() error {
	return o.out.Close()
}
