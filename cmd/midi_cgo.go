//go:build cgo

package cmd

import (
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func newMIDIDriver() (drivers.Driver, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, err
	}
	return driver, nil
}
