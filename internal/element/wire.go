package element

import (
	"encoding/binary"
	"math"
)

// AtomWireSize is the fixed wire encoding of one Atom: 3×f32 position plus
// an f32-encoded atomic number (bit-exact IEEE-754, integer-valued).
const AtomWireSize = 16

// BondWireSize is the fixed wire encoding of one Bond: 2×u32 little-endian
// indices with I < J.
const BondWireSize = 8

// EncodeAtom writes a into dst[:16].
func EncodeAtom(dst []byte, a Atom) {
	_ = dst[AtomWireSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(a.X))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(a.Y))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(a.Z))
	binary.LittleEndian.PutUint32(dst[12:16], math.Float32bits(float32(a.Number)))
}

// DecodeAtom reads an Atom from src[:16].
func DecodeAtom(src []byte) Atom {
	_ = src[AtomWireSize-1]
	x := math.Float32frombits(binary.LittleEndian.Uint32(src[0:4]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(src[4:8]))
	z := math.Float32frombits(binary.LittleEndian.Uint32(src[8:12]))
	n := math.Float32frombits(binary.LittleEndian.Uint32(src[12:16]))
	return Atom{X: x, Y: y, Z: z, Number: Number(n)}
}

// EncodeBond writes the canonical form of b into dst[:8].
func EncodeBond(dst []byte, b Bond) {
	_ = dst[BondWireSize-1]
	b = b.Canonical()
	binary.LittleEndian.PutUint32(dst[0:4], b.I)
	binary.LittleEndian.PutUint32(dst[4:8], b.J)
}

// DecodeBond reads a Bond from src[:8].
func DecodeBond(src []byte) Bond {
	_ = src[BondWireSize-1]
	i := binary.LittleEndian.Uint32(src[0:4])
	j := binary.LittleEndian.Uint32(src[4:8])
	return Bond{I: i, J: j}
}
