package decoders

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Fields gives fixed-offset big-endian access to an advertisement payload.
// Every accessor checks off+width against the buffer and never reads past it.
type Fields []byte

func (f Fields) need(off, n int) error {
	if off < 0 || n < 0 || off+n > len(f) {
		return errors.Wrapf(ErrTruncatedPayload, "need %d bytes at offset %d, have %d", n, off, len(f))
	}
	return nil
}

func (f Fields) Uint8(off int) (uint8, error) {
	if err := f.need(off, 1); err != nil {
		return 0, err
	}
	return f[off], nil
}

func (f Fields) Int8(off int) (int8, error) {
	v, err := f.Uint8(off)
	return int8(v), err
}

func (f Fields) Uint16(off int) (uint16, error) {
	if err := f.need(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(f[off:]), nil
}

func (f Fields) Int16(off int) (int16, error) {
	v, err := f.Uint16(off)
	return int16(v), err
}

func (f Fields) Uint32(off int) (uint32, error) {
	if err := f.need(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(f[off:]), nil
}

// Slice returns a view of n bytes at off. Callers must not write to it.
func (f Fields) Slice(off, n int) ([]byte, error) {
	if err := f.need(off, n); err != nil {
		return nil, err
	}
	return f[off : off+n : off+n], nil
}

// fieldReader keeps the first error so decoders can read a run of fields
// after their length precheck and test once at the end.
type fieldReader struct {
	f   Fields
	err error
}

func (r *fieldReader) u8(off int) uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.f.Uint8(off)
	r.err = err
	return v
}

func (r *fieldReader) i8(off int) int8 {
	return int8(r.u8(off))
}

func (r *fieldReader) u16(off int) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.f.Uint16(off)
	r.err = err
	return v
}

func (r *fieldReader) i16(off int) int16 {
	return int16(r.u16(off))
}

func (r *fieldReader) u32(off int) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.f.Uint32(off)
	r.err = err
	return v
}

func (r *fieldReader) bytes(off, n int) []byte {
	if r.err != nil {
		return nil
	}
	v, err := r.f.Slice(off, n)
	r.err = err
	return v
}

func precheck(format string, p []byte, min int) error {
	if len(p) < min {
		return errors.Wrapf(ErrTruncatedPayload, "%s: need %d bytes, got %d", format, min, len(p))
	}
	return nil
}
