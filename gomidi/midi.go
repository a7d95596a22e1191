// Package gomidi connects MIDI input ports to a player. The MIDI driver is
// passed in, so this package compiles without cgo; the command wires in
// rtmididrv when cgo is available.
package gomidi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/vsariola/looper/player"
)

type (
	// Context listens to at most one input port at a time and forwards the
	// notes, and optionally the clock, to the player.
	Context struct {
		driver        drivers.Driver
		broker        *player.Broker
		externalClock bool

		mu        sync.Mutex
		currentIn drivers.In
		stop      func()
		dropped   int
	}

	Device struct {
		context *Context
		in      drivers.In
	}
)

var (
	ErrNoDriver = errors.New("no MIDI driver available")
	ErrNoInput  = errors.New("no MIDI input found")
)

// NewContext returns a context using driver, which may be nil if no driver
// could be opened. If externalClock is true, MIDI clock messages are passed
// to the player as ticks, and start messages rewind the loop.
func NewContext(driver drivers.Driver, broker *player.Broker, externalClock bool) *Context {
	return &Context{driver: driver, broker: broker, externalClock: externalClock}
}

func (c *Context) InputDevices(yield func(Device) bool) {
	if c.driver == nil {
		return
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(Device{context: c, in: in}) {
			return
		}
	}
}

// Open an input device while closing the currently open if necessary.
func (d Device) Open() error {
	c := d.context
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return ErrNoDriver
	}
	c.closeCurrent()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input %v: %w", d.in, err)
	}
	var opts []midi.Option
	if c.externalClock {
		opts = append(opts, midi.UseTimeCode())
	}
	stop, err := midi.ListenTo(d.in, c.HandleMessage, opts...)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input %v: %w", d.in, err)
	}
	c.currentIn, c.stop = d.in, stop
	return nil
}

func (d Device) String() string {
	return d.in.String()
}

// TryToOpenBy opens the first input whose name starts with namePrefix. An
// empty prefix matches the first input.
func (c *Context) TryToOpenBy(namePrefix string) (string, error) {
	if c.driver == nil {
		return "", ErrNoDriver
	}
	for input := range c.InputDevices {
		if strings.HasPrefix(input.String(), namePrefix) {
			return input.String(), input.Open()
		}
	}
	if namePrefix == "" {
		return "", ErrNoInput
	}
	return "", fmt.Errorf("%w starting with %q", ErrNoInput, namePrefix)
}

func (c *Context) HasDeviceOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentIn != nil && c.currentIn.IsOpen()
}

// HandleMessage is called by the driver for each incoming message. It never
// blocks: if the player is not keeping up, the message is dropped.
func (c *Context) HandleMessage(msg midi.Message, timestampms int32) {
	m, ok := Translate(msg)
	if !ok {
		return
	}
	switch m.(type) {
	case player.ClockMsg, player.StartMsg:
		if !c.externalClock {
			return
		}
	}
	if !player.TrySend(c.broker.ToPlayer, m) {
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
	}
}

// Dropped returns how many messages were lost because the player queue was
// full.
func (c *Context) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCurrent()
	if c.driver != nil {
		c.driver.Close()
	}
}

func (c *Context) closeCurrent() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

const (
	timingClock = 0xF8
	start       = 0xFA
)

// Translate converts a MIDI message to a message for the player. Note ons
// with zero velocity are note offs.
func Translate(msg midi.Message) (any, bool) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		return player.NoteEvent{On: true, Channel: int(channel), Note: key, Velocity: velocity}, true
	case msg.GetNoteEnd(&channel, &key):
		return player.NoteEvent{Channel: int(channel), Note: key}, true
	case len(msg) == 1 && msg[0] == timingClock:
		return player.ClockMsg{}, true
	case len(msg) == 1 && msg[0] == start:
		return player.StartMsg{}, true
	}
	return nil, false
}
