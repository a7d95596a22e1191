//go:build !cgo

package cmd

import (
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/vsariola/looper/gomidi"
)

// with no cgo, we cannot use MIDI
func newMIDIDriver() (drivers.Driver, error) {
	return nil, gomidi.ErrNoDriver
}
