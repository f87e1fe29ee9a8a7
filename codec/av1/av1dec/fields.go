/*
DESCRIPTION
  fields.go provides the sticky-error field reader used throughout the
  sequence, frame and block header parsers, plus the small batch helpers
  (readFields/readFlags) used where a syntax structure is a flat run of
  fixed-width fields or single-bit flags.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/av1dec/codec/av1/av1dec/bits"
)

// fieldReader provides methods for reading the uncompressed-header
// descriptors used by AV1 (f(n), su(n+1), ns(n), uvlc(), subexp(ref,n))
// from a bits.BitReader with a sticky error that may be checked after a
// series of parsing read calls, mirroring the teacher's Exp-Golomb field
// reader but retargeted at AV1's descriptor set.
type fieldReader struct {
	e  error
	br *bits.BitReader
}

// newFieldReader returns a new fieldReader. It is returned as a pointer
// since its sticky error must accumulate across calls threaded through
// helper functions, not just within a single expression.
func newFieldReader(br *bits.BitReader) *fieldReader {
	return &fieldReader{br: br}
}

// readBits returns the f(n) descriptor: n bits read MSB-first. The read
// does not happen if the fieldReader already has a non-nil error.
func (r *fieldReader) readBits(n int) uint64 {
	if r.e != nil {
		return 0
	}
	var b uint64
	b, r.e = r.br.ReadBits(n)
	return b
}

// readBit returns a single-bit flag, the f(1) descriptor.
func (r *fieldReader) readBit() bool {
	return r.readBits(1) == 1
}

// readSigned returns the su(n+1) descriptor: an n+1 bit two's-complement
// signed integer.
func (r *fieldReader) readSigned(n int) int64 {
	if r.e != nil {
		return 0
	}
	var v int64
	v, r.e = r.br.ReadSigned(n)
	return v
}

// readUniform returns the ns(rng) descriptor: a value uniformly
// distributed over [0, rng).
func (r *fieldReader) readUniform(rng int) uint64 {
	if r.e != nil {
		return 0
	}
	var v uint64
	v, r.e = r.br.ReadUniform(rng)
	return v
}

// readVLC returns the uvlc() descriptor: an unsigned variable-length code.
func (r *fieldReader) readVLC() uint32 {
	if r.e != nil {
		return 0
	}
	var v uint32
	v, r.e = r.br.ReadVLC()
	return v
}

// readSubExp returns the subexp(ref, n) descriptor: a sub-exponential
// Golomb-coded value recentered against ref over a domain of size n.
func (r *fieldReader) readSubExp(ref, n int) int {
	if r.e != nil {
		return 0
	}
	var v int
	v, r.e = r.br.ReadSubExp(ref, n)
	return v
}

// readLEB128 returns the leb128() descriptor used for obu_size and other
// variable-length unsigned integers in the OBU framing layer: up to 8
// groups of 7 payload bits, each preceded by a continuation bit.
func (r *fieldReader) readLEB128() uint64 {
	if r.e != nil {
		return 0
	}
	var v uint64
	for i := 0; i < 8; i++ {
		b := r.readBits(8)
		if r.e != nil {
			return 0
		}
		v |= (b & 0x7f) << uint(i*7)
		if b&0x80 == 0 {
			break
		}
	}
	return v
}

// err returns the fieldReader's sticky error.
func (r *fieldReader) err() error {
	return r.e
}

// field names a fixed-width f(n) read destination, used by readFields to
// parse a flat run of such fields in one call.
type field struct {
	loc  *int
	name string
	n    int
}

// readFields reads each field in fields from br in order, wrapping any
// error with the offending field's name.
func readFields(br *bits.BitReader, fields []field) error {
	for _, f := range fields {
		b, err := br.ReadBits(f.n)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("could not read %s", f.name))
		}
		*f.loc = int(b)
	}
	return nil
}

// flag names a single-bit f(1) read destination, used by readFlags to
// parse a flat run of such flags in one call.
type flag struct {
	loc  *bool
	name string
}

// readFlags reads each flag in flags from br in order, wrapping any error
// with the offending flag's name.
func readFlags(br *bits.BitReader, flags []flag) error {
	for _, f := range flags {
		b, err := br.ReadBits(1)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("could not read %s", f.name))
		}
		*f.loc = b == 1
	}
	return nil
}

// byteAlignment consumes zero_bit entries up to the next byte boundary, the
// trailing bits() syntax used to pad uncompressed headers out to a whole
// number of bytes before compressed tile data begins.
func byteAlignment(br *bits.BitReader) error {
	for !br.ByteAligned() {
		if _, err := br.ReadBits(1); err != nil {
			return errors.Wrap(err, "could not read byte-alignment padding bit")
		}
	}
	return nil
}
