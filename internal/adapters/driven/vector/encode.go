package vector

import (
	"encoding/binary"
	"math"
)

// EncodeFloat32s packs a vector as little-endian float32s for BLOB storage.
func EncodeFloat32s(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeFloat32s reverses EncodeFloat32s. Trailing bytes are ignored.
func DecodeFloat32s(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
