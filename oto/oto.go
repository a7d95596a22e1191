// Package oto plays rendered audio through the sound card.
package oto

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

type (
	// Renderer fills buffers of mono samples, e.g. a monitor.Monitor.
	Renderer interface {
		Render(buf []float32)
	}

	OtoContext struct {
		context    *oto.Context
		sampleRate int
	}

	OtoOutput struct {
		player *oto.Player
	}

	// reader pulls samples from a Renderer whenever oto wants more bytes.
	reader struct {
		renderer  Renderer
		floatBuf  []float32
		tmpBuffer []byte
	}
)

const otoBufferSize = 20 * time.Millisecond

// NewContext opens the audio device for mono float output.
func NewContext(sampleRate int) (*OtoContext, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context, sampleRate: sampleRate}, nil
}

func (c *OtoContext) SampleRate() int {
	return c.sampleRate
}

// Play starts pulling audio from r until the output is closed.
func (c *OtoContext) Play(r Renderer) *OtoOutput {
	player := c.context.NewPlayer(&reader{renderer: r})
	player.Play()
	return &OtoOutput{player: player}
}

func (r *reader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if cap(r.floatBuf) < n {
		r.floatBuf = make([]float32, n)
	}
	r.renderer.Render(r.floatBuf[:n])
	// we reuse the old capacity tmpBuffer by setting its length to zero
	r.tmpBuffer = FloatBufferToLE(r.floatBuf[:n], r.tmpBuffer[:0])
	return copy(p, r.tmpBuffer), nil
}

// Close disposes of resources
func (o *OtoOutput) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
