package pager

import (
	"encoding/binary"
	"math"
)

// What: fixed-width arithmetic and byte-run reads/writes at an offset within
// a slice.
// How: thin wrappers over encoding/binary.LittleEndian plus bounds checks;
// every operation fails with a ByteIOError rather than panicking on an
// out-of-range offset. Numeric values are little-endian, which matches the
// teacher's superblock/page-header convention (internal/storage/pager/page.go,
// internal/storage/pager/superblock.go) and makes the on-disk layout
// reproducible across machines of the same architecture family even though
// §4.1 treats byte order as host-defined and out of scope for portability.

func checkBounds(action string, offset, size, sliceLen int) error {
	if offset < 0 || size < 0 || offset+size > sliceLen {
		return newByteIOError(action, offset+size, sliceLen)
	}
	return nil
}

// ViewUint8 reads a single byte at offset.
func ViewUint8(buf []byte, offset int) (uint8, error) {
	if err := checkBounds("read", offset, 1, len(buf)); err != nil {
		return 0, err
	}
	return buf[offset], nil
}

// WriteUint8 writes a single byte at offset.
func WriteUint8(buf []byte, offset int, v uint8) error {
	if err := checkBounds("write", offset, 1, len(buf)); err != nil {
		return err
	}
	buf[offset] = v
	return nil
}

// ViewUint16 reads a little-endian uint16 at offset.
func ViewUint16(buf []byte, offset int) (uint16, error) {
	if err := checkBounds("read", offset, 2, len(buf)); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[offset:]), nil
}

// WriteUint16 writes a little-endian uint16 at offset.
func WriteUint16(buf []byte, offset int, v uint16) error {
	if err := checkBounds("write", offset, 2, len(buf)); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(buf[offset:], v)
	return nil
}

// ViewUint32 reads a little-endian uint32 at offset.
func ViewUint32(buf []byte, offset int) (uint32, error) {
	if err := checkBounds("read", offset, 4, len(buf)); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[offset:]), nil
}

// WriteUint32 writes a little-endian uint32 at offset.
func WriteUint32(buf []byte, offset int, v uint32) error {
	if err := checkBounds("write", offset, 4, len(buf)); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[offset:], v)
	return nil
}

// ViewInt32 reads a little-endian int32 at offset.
func ViewInt32(buf []byte, offset int) (int32, error) {
	v, err := ViewUint32(buf, offset)
	return int32(v), err
}

// WriteInt32 writes a little-endian int32 at offset.
func WriteInt32(buf []byte, offset int, v int32) error {
	return WriteUint32(buf, offset, uint32(v))
}

// ViewFloat64 reads a little-endian IEEE-754 double at offset.
func ViewFloat64(buf []byte, offset int) (float64, error) {
	bits, err := ViewUint64(buf, offset)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// WriteFloat64 writes a little-endian IEEE-754 double at offset.
func WriteFloat64(buf []byte, offset int, v float64) error {
	return WriteUint64(buf, offset, math.Float64bits(v))
}

// ViewUint64 reads a little-endian uint64 at offset.
func ViewUint64(buf []byte, offset int) (uint64, error) {
	if err := checkBounds("read", offset, 8, len(buf)); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[offset:]), nil
}

// WriteUint64 writes a little-endian uint64 at offset.
func WriteUint64(buf []byte, offset int, v uint64) error {
	if err := checkBounds("write", offset, 8, len(buf)); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[offset:], v)
	return nil
}

// ViewBytes returns a copy of size bytes at offset.
func ViewBytes(buf []byte, offset, size int) ([]byte, error) {
	if err := checkBounds("read", offset, size, len(buf)); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, buf[offset:offset+size])
	return out, nil
}

// WriteBytes copies src byte-wise into buf at offset without a terminator,
// failing if src does not fit in buf starting at offset.
func WriteBytes(buf []byte, offset int, src []byte) error {
	if err := checkBounds("write", offset, len(src), len(buf)); err != nil {
		return err
	}
	copy(buf[offset:offset+len(src)], src)
	return nil
}
