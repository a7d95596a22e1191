//go:build cgo

package cmd

import (
	"io"

	"github.com/vsariola/looper/oto"
)

func playAudio(r oto.Renderer, sampleRate int) (io.Closer, error) {
	context, err := oto.NewContext(sampleRate)
	if err != nil {
		return nil, err
	}
	return context.Play(r), nil
}
