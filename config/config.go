// Package config reads the settings of the looper command from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsariola/looper"
)

type Config struct {
	Settings        looper.SequencerSettings `yaml:"settings"`
	BPM             float64                  `yaml:"bpm"`
	TicksPerQuarter int                      `yaml:"ticks_per_quarter"` // master clock resolution; the deck expects 24
	RefreshRate     int                      `yaml:"refresh_rate"`      // deck refreshes per second
	Tape            string                   `yaml:"tape,omitempty"`    // file the tape is loaded from and autosaved to
	Autosave        time.Duration            `yaml:"autosave"`
	MIDIInput       string                   `yaml:"midi_input,omitempty"`  // prefix of the input port name; empty means the first port
	MIDIOutput      string                   `yaml:"midi_output,omitempty"` // prefix of the output port name; empty disables MIDI output
	Listen          string                   `yaml:"listen,omitempty"`      // address of the HTTP server; empty disables it
	Monitor         bool                     `yaml:"monitor"`               // play the notes through the sound card
	MIDIChannel     uint8                    `yaml:"midi_channel"`
}

var (
	ErrBPM         = errors.New("bpm must be positive")
	ErrRefreshRate = errors.New("refresh rate must be positive")
	ErrTicks       = errors.New("ticks per quarter must be positive")
	ErrLoopLength  = errors.New("loop length must be positive")
	ErrChannel     = errors.New("MIDI channel must be between 0 and 15")
)

func Default() Config {
	return Config{
		Settings:        looper.DefaultSequencerSettings(),
		BPM:             120,
		TicksPerQuarter: 24,
		RefreshRate:     1000,
		Autosave:        2 * time.Second,
	}
}

// Read decodes a config, starting from the defaults so that a file only needs
// to name the values it changes.
func Read(r io.Reader) (Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the config file at path. A missing file is not an error: the
// defaults are returned.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	defer f.Close()
	c, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

func (c *Config) Validate() error {
	switch {
	case c.BPM <= 0:
		return fmt.Errorf("%w: %v", ErrBPM, c.BPM)
	case c.RefreshRate <= 0:
		return fmt.Errorf("%w: %v", ErrRefreshRate, c.RefreshRate)
	case c.TicksPerQuarter <= 0:
		return fmt.Errorf("%w: %v", ErrTicks, c.TicksPerQuarter)
	case c.Settings.LoopLength == 0:
		return ErrLoopLength
	case c.MIDIChannel > 15:
		return fmt.Errorf("%w: %d", ErrChannel, c.MIDIChannel)
	case c.Settings.PlayMode >= looper.PlayModeLast:
		return fmt.Errorf("%w: %d", looper.ErrUnknownPlayMode, c.Settings.PlayMode)
	}
	return nil
}

// TickInterval returns the time between two ticks of the master clock.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Minute) / (c.BPM * float64(c.TicksPerQuarter)))
}

// RefreshInterval returns the time between two refreshes of the deck.
func (c *Config) RefreshInterval() time.Duration {
	return time.Second / time.Duration(c.RefreshRate)
}
