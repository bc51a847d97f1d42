// Package bx is a small byte-offset helper for encoding/decoding the
// fixed-layout typed page views in internal/hashindex. Every field is
// little-endian; the hash index is not required to be portable across
// architectures, but the encoding itself must be explicit rather than
// "whatever the host does".
package bx

import "encoding/binary"

var LE = binary.LittleEndian

func U8(b []byte) uint8  { return b[0] }
func U16(b []byte) uint16 { return LE.Uint16(b) }
func U32(b []byte) uint32 { return LE.Uint32(b) }
func U64(b []byte) uint64 { return LE.Uint64(b) }
func I32(b []byte) int32  { return int32(U32(b)) }

func PutU8(b []byte, v uint8)   { b[0] = v }
func PutU16(b []byte, v uint16) { LE.PutUint16(b, v) }
func PutU32(b []byte, v uint32) { LE.PutUint32(b, v) }
func PutU64(b []byte, v uint64) { LE.PutUint64(b, v) }
func PutI32(b []byte, v int32)  { PutU32(b, uint32(v)) }

func U8At(b []byte, off int) uint8    { return U8(b[off:]) }
func U16At(b []byte, off int) uint16  { return U16(b[off:]) }
func U32At(b []byte, off int) uint32  { return U32(b[off:]) }
func I32At(b []byte, off int) int32   { return I32(b[off:]) }

func PutU8At(b []byte, off int, v uint8)   { PutU8(b[off:], v) }
func PutU16At(b []byte, off int, v uint16) { PutU16(b[off:], v) }
func PutU32At(b []byte, off int, v uint32) { PutU32(b[off:], v) }
func PutI32At(b []byte, off int, v int32)  { PutI32(b[off:], v) }
