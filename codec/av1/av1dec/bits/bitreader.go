/*
DESCRIPTION
  bitreader.go provides a bit reader implementation that can read or peek from
  an io.Reader data source, including the fixed, signed, uniform,
  variable-length and sub-exponential descriptors used by AV1's uncompressed
  headers.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package bits provides a bit reader implementation that can read or peek from
// an io.Reader data source.
package bits

import (
	"bufio"
	"io"
)

type bytePeeker interface {
	io.ByteReader
	Peek(int) ([]byte, error)
}

// BitReader is a bit reader that provides methods for reading bits from an
// io.Reader source.
type BitReader struct {
	r     bytePeeker
	n     uint64
	bits  int
	nRead int
	err   error
}

// NewBitReader returns a new BitReader.
func NewBitReader(r io.Reader) *BitReader {
	byter, ok := r.(bytePeeker)
	if !ok {
		byter = bufio.NewReader(r)
	}
	return &BitReader{r: byter}
}

// ReadBits reads n bits from the source and returns them the least-significant
// part of a uint64.
// For example, with a source as []byte{0x8f,0xe3} (1000 1111, 1110 0011), we
// would get the following results for consequtive reads with n values:
// n = 4, res = 0x8 (1000)
// n = 2, res = 0x3 (0011)
// n = 4, res = 0xf (1111)
// n = 6, res = 0x23 (0010 0011)
func (br *BitReader) ReadBits(n int) (uint64, error) {
	for n > br.bits {
		b, err := br.r.ReadByte()
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, err
		}
		br.nRead++
		br.n <<= 8
		br.n |= uint64(b)
		br.bits += 8
	}

	// br.n looks like this (assuming that br.bits = 14 and bits = 6):
	// Bit: 111111
	//      5432109876543210
	//
	//         (6 bits, the desired output)
	//        |-----|
	//        V     V
	//      0101101101001110
	//        ^            ^
	//        |------------|
	//           br.bits (num valid bits)
	//
	// This the next line right shifts the desired bits into the
	// least-significant places and masks off anything above.
	r := (br.n >> uint(br.bits-n)) & ((1 << uint(n)) - 1)
	br.bits -= n
	return r, nil
}

// PeekBits provides the next n bits returning them in the least-significant
// part of a uint64, without advancing through the source.
// For example, with a source as []byte{0x8f,0xe3} (1000 1111, 1110 0011), we
// would get the following results for consequtive peeks with n values:
// n = 4, res = 0x8 (1000)
// n = 8, res = 0x8f (1000 1111)
// n = 16, res = 0x8fe3 (1000 1111, 1110 0011)
func (br *BitReader) PeekBits(n int) (uint64, error) {
	byt, err := br.r.Peek(int((n-br.bits)+7) / 8)
	bits := br.bits
	if err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	for i := 0; n > bits; i++ {
		b := byt[i]
		if err != nil {
			return 0, err
		}
		br.n <<= 8
		br.n |= uint64(b)
		bits += 8
	}

	r := (br.n >> uint(bits-n)) & ((1 << uint(n)) - 1)
	return r, nil
}

// ByteAligned returns true if the reader position is at the start of a byte,
// and false otherwise.
func (br *BitReader) ByteAligned() bool {
	return br.bits == 0
}

// Off returns the current offset from the starting bit of the current byte.
func (br *BitReader) Off() int {
	return br.bits
}

// BytesRead returns the number of bytes that have been read by the BitReader.
func (br *BitReader) BytesRead() int {
	return br.nRead
}

// Err returns the sticky error latched by Sat once the underlying source is
// exhausted. It is nil until that happens.
func (br *BitReader) Err() error {
	return br.err
}

// Sat reads n bits the same way as ReadBits, except that once the source is
// exhausted it latches a sticky error (retrievable via Err) and returns
// zero-padded bits for this and every subsequent call, rather than
// propagating the error to the caller. This matches the out-of-data
// behaviour required of parsers that must keep consuming a syntax tree to
// completion after the underlying stream has run dry.
func (br *BitReader) Sat(n int) uint64 {
	if br.err != nil {
		return 0
	}
	v, err := br.ReadBits(n)
	if err != nil {
		br.err = err
		return 0
	}
	return v
}

// ReadSigned reads n+1 bits and interprets them as a two's-complement signed
// integer, i.e. the f(n+1) descriptor used by fixed-width signed fields.
func (br *BitReader) ReadSigned(n int) (int64, error) {
	v, err := br.ReadBits(n + 1)
	if err != nil {
		return 0, err
	}
	shift := uint(63 - n)
	return int64(v<<shift) >> shift, nil
}

// ReadUniform reads a value uniformly distributed over [0, rng) using the
// classic non-symmetric (ns) two-step scheme: w = floor(log2(rng)) + 1 bits are
// read as w-1 bits followed by, when the short code doesn't disambiguate a
// value in range, one further bit.
func (br *BitReader) ReadUniform(rng int) (uint64, error) {
	if rng <= 1 {
		return 0, nil
	}
	w := floorLog2(uint(rng)) + 1
	m := (uint64(1) << uint(w)) - uint64(rng)
	v, err := br.ReadBits(w - 1)
	if err != nil {
		return 0, err
	}
	if v < m {
		return v, nil
	}
	extra, err := br.ReadBits(1)
	if err != nil {
		return 0, err
	}
	return (v << 1) - m + extra, nil
}

// ReadVLC reads a unary prefix of zeros terminated by a one bit, followed by
// that many suffix bits, saturating to 0xFFFFFFFF once 32 leading zeros have
// been seen without a terminating one.
func (br *BitReader) ReadVLC() (uint32, error) {
	leadingZeros := 0
	for leadingZeros < 32 {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		leadingZeros++
	}
	if leadingZeros >= 32 {
		return 0xFFFFFFFF, nil
	}
	if leadingZeros == 0 {
		return 0, nil
	}
	suffix, err := br.ReadBits(leadingZeros)
	if err != nil {
		return 0, err
	}
	return uint32((uint64(1)<<uint(leadingZeros) - 1) + suffix), nil
}

// ReadSubExp reads a sub-exponential Golomb-coded value with reference
// recentering against ref, as used for delta-coded loop-restoration and
// global-motion parameters (the bit-reader analogue of decode_subexp).
func (br *BitReader) ReadSubExp(ref, n int) (int, error) {
	i, mk, k := 0, 0, 3
	for {
		b2 := k
		if i != 0 {
			b2 = k + i - 1
		}
		a := 1 << uint(b2)
		if n <= mk+3*a {
			v, err := br.ReadUniform(n - mk)
			if err != nil {
				return 0, err
			}
			return invRecenter(ref, int(v)+mk), nil
		}
		bit, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			i++
			mk += a
			continue
		}
		v, err := br.ReadBits(b2)
		if err != nil {
			return 0, err
		}
		return invRecenter(ref, int(v)+mk), nil
	}
}

// invRecenter maps a decoded sub-exp value back onto the full range around
// a reference value, per the standard AV1 inverse-recenter process.
func invRecenter(ref, v int) int {
	if v > 2*ref {
		return v
	}
	if v&1 != 0 {
		return ref - ((v + 1) >> 1)
	}
	return ref + (v >> 1)
}

// Flush discards the shift register and returns the byte position of the
// next unread byte.
func (br *BitReader) Flush() int {
	br.n = 0
	br.bits = 0
	return br.nRead
}

// floorLog2 returns floor(log2(v)) for v >= 1.
func floorLog2(v uint) int {
	n := -1
	for v != 0 {
		v >>= 1
		n++
	}
	return n
}
