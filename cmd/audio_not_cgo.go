//go:build !cgo

package cmd

import (
	"errors"
	"io"
)

// oto needs cgo on most platforms, so without it there is no sound.
func playAudio(r interface{ Render(buf []float32) }, sampleRate int) (io.Closer, error) {
	return nil, errors.New("audio output needs cgo")
}
