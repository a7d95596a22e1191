package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToLE appends the samples of buff to out as 32-bit little-endian
// floats, the sample format the oto context is opened with.
func FloatBufferToLE(buff []float32, out []byte) []byte {
	for _, v := range buff {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}
