package render_test

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/monitor"
	"github.com/vsariola/looper/render"
	"github.com/vsariola/looper/storage"
)

func peak(buf []float32) float32 {
	var p float32
	for _, v := range buf {
		p = max(p, v, -v)
	}
	return p
}

func TestEmptyTapeIsSilent(t *testing.T) {
	out, err := render.Tape(looper.EmptyTape(), 100*time.Millisecond, 48000, 2)
	require.NoError(t, err)
	assert.Len(t, out, 9600)
	assert.Zero(t, peak(out))
}

func TestNoteSoundsWhereRecorded(t *testing.T) {
	s := storage.Snapshot{Notes: []storage.NoteRecord{{On: 0, Off: 32768, Pitch: 69, Velocity: 127}}}
	tape, err := s.Tape()
	require.NoError(t, err)
	out, err := render.Tape(tape, 100*time.Millisecond, 48000, 2)
	require.NoError(t, err)
	for loop := range 2 {
		pass := out[loop*4800 : (loop+1)*4800]
		assert.Greater(t, peak(pass[:2000]), float32(0.5*monitor.Gain), "loop %d", loop)
		assert.Zero(t, peak(pass[3000:]), "loop %d", loop)
	}
}

func TestNoteHeldOverTheWrap(t *testing.T) {
	s := storage.Snapshot{Notes: []storage.NoteRecord{{On: 49152, Off: 16384, Pitch: 60, Velocity: 127}}}
	tape, err := s.Tape()
	require.NoError(t, err)
	out, err := render.Tape(tape, 100*time.Millisecond, 48000, 1)
	require.NoError(t, err)
	assert.Greater(t, peak(out[:1000]), float32(0.5*monitor.Gain))
	assert.Zero(t, peak(out[1800:3500]))
	assert.Greater(t, peak(out[3800:]), float32(0.5*monitor.Gain))
}

func TestEmptyLoop(t *testing.T) {
	_, err := render.Tape(looper.EmptyTape(), 0, 48000, 1)
	assert.ErrorIs(t, err, render.ErrEmptyLoop)
}

func TestWav(t *testing.T) {
	samples := []float32{0, 2, -2}
	var pcm bytes.Buffer
	require.NoError(t, render.Wav(&pcm, samples, 48000, true))
	b := pcm.Bytes()
	require.Len(t, b, 44+6)
	assert.Equal(t, "RIFF", string(b[0:4]))
	assert.Equal(t, "WAVE", string(b[8:12]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[20:22]), "format")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[22:24]), "channels")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(b[24:28]))
	assert.Equal(t, "data", string(b[36:40]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(b[40:44]))
	assert.Equal(t, []byte{0, 0, 0xFF, 0x7F, 0x00, 0x80}, b[44:])

	var float bytes.Buffer
	require.NoError(t, render.Wav(&float, samples, 44100, false))
	b = float.Bytes()
	require.Len(t, b, 58+12)
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(b[20:22]), "format")
	assert.Equal(t, "fact", string(b[38:42]))
	assert.Equal(t, "data", string(b[50:54]))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(b[54:58]))
}
