package render

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Wav writes mono samples as a .wav file. If pcm16 is true, the samples are
// converted to 16-bit signed PCM; otherwise they are written as float32.
func Wav(w io.Writer, samples []float32, sampleRate int, pcm16 bool) error {
	buf := new(bytes.Buffer)
	wavHeader(len(samples), sampleRate, pcm16, buf)
	if err := rawToBuffer(samples, pcm16, buf); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	return nil
}

func rawToBuffer(data []float32, pcm16 bool, buf *bytes.Buffer) error {
	if !pcm16 {
		return binary.Write(buf, binary.LittleEndian, data)
	}
	int16data := make([]int16, len(data))
	for i, v := range data {
		int16data[i] = int16(clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
	}
	return binary.Write(buf, binary.LittleEndian, int16data)
}

// wavHeader writes the header of a mono .wav file of length samples.
// See http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
func wavHeader(length, sampleRate int, pcm16 bool, buf *bytes.Buffer) {
	const numChannels = 1
	var bytesPerSample, chunkSize, fmtChunkSize, waveFormat int
	if pcm16 {
		bytesPerSample = 2
		chunkSize = 36 + bytesPerSample*length
		fmtChunkSize = 16
		waveFormat = 1 // PCM
	} else {
		bytesPerSample = 4
		chunkSize = 50 + bytesPerSample*length
		fmtChunkSize = 18
		waveFormat = 3 // IEEE float
	}
	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(buf, le, uint32(chunkSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, le, uint32(fmtChunkSize))
	binary.Write(buf, le, uint16(waveFormat))
	binary.Write(buf, le, uint16(numChannels))
	binary.Write(buf, le, uint32(sampleRate))
	binary.Write(buf, le, uint32(sampleRate*numChannels*bytesPerSample)) // avgBytesPerSec
	binary.Write(buf, le, uint16(numChannels*bytesPerSample))            // blockAlign
	binary.Write(buf, le, uint16(8*bytesPerSample))                      // bits per sample
	if !pcm16 {
		binary.Write(buf, le, uint16(0)) // size of extension
		buf.WriteString("fact")
		binary.Write(buf, le, uint32(4))
		binary.Write(buf, le, uint32(length))
	}
	buf.WriteString("data")
	binary.Write(buf, le, uint32(bytesPerSample*length))
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
