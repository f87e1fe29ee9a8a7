/*
DESCRIPTION
  msac.go provides the multi-symbol arithmetic coder (MSAC) used to decode
  context-adaptive syntax elements from a tile's compressed payload, as
  described in section 4.B of the parsing core's design: a boolean range
  coder operating over 15-bit adaptive CDFs, plus the non-adaptive and
  bypass variants used for literal bits.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Shawn Smith <shawnpsmith@gmail.com>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package av1dec

import "github.com/pkg/errors"

// cdfProb is the fixed-point precision (out of 1<<cdfProb) that all CDF
// entries are expressed in, matching the 15-bit CDFs called for in 4.B.
const cdfProb = 15

// adaptCountCap bounds the per-CDF symbol counter that drives rate(count);
// beyond it the adaptation step no longer shrinks further.
const adaptCountCap = 32

// MSAC is a multi-symbol arithmetic decoder reading from a single tile's
// compressed payload. It is never shared across tiles (§3 invariants): each
// tile owns one MSAC bound to its own byte range and its own CDF copy.
type MSAC struct {
	buf []byte
	pos int

	rng uint32 // current coding interval width.
	dif uint32 // current coding interval offset.
	cnt int    // number of valid bits remaining in dif above the window.

	disableCDFUpdate bool
	err              error
}

// NewMSAC returns an MSAC initialized to decode buf. disableCDFUpdate
// suppresses the rate-based CDF adaptation, used for pass-2 frame-parallel
// pre-parsed decoding paths where none is needed. Bit-exact initialization
// follows the standard range-coder convention: rng starts maximal and dif is
// primed from the first two bytes of the payload.
func NewMSAC(buf []byte, disableCDFUpdate bool) *MSAC {
	m := &MSAC{buf: buf, rng: 1 << 15, disableCDFUpdate: disableCDFUpdate}
	m.dif = uint32(m.nextByte())<<8 | uint32(m.nextByte())
	m.cnt = 16 - 15
	return m
}

// nextByte consumes and returns the next payload byte, or 0 once the buffer
// is exhausted, latching the out-of-data error per §7(a).
func (m *MSAC) nextByte() byte {
	if m.pos >= len(m.buf) {
		if m.err == nil {
			m.err = errOutOfData
		}
		return 0
	}
	b := m.buf[m.pos]
	m.pos++
	return b
}

// Err reports the sticky out-of-data error latched once the tile's
// compressed payload has been exhausted.
func (m *MSAC) Err() error {
	return m.err
}

var errOutOfData = errors.New("msac: compressed payload exhausted")

// renorm renormalizes rng back above the coder's working window, shifting
// in fresh bits from the payload as needed.
func (m *MSAC) renorm() {
	for m.rng < (1 << 15) {
		m.rng <<= 1
		m.dif <<= 1
		m.cnt--
		if m.cnt < 0 {
			m.dif |= uint32(m.nextByte())
			m.cnt += 8
		}
	}
}

// DecodeBool decodes a single non-adaptive boolean with the given 15-bit
// probability of the symbol being 0.
func (m *MSAC) DecodeBool(prob uint16) bool {
	split := 1 + (((m.rng - 1) * uint32(prob)) >> cdfProb)
	var bit bool
	if m.dif>>16 >= split {
		m.dif -= split << 16
		m.rng -= split
		bit = true
	} else {
		m.rng = split
	}
	m.renorm()
	return bit
}

// DecodeBoolAdapt decodes a single adaptive boolean whose state is cdf[0:2]:
// cdf[0] the probability, cdf[1] the adaptation counter, per §4.B.
func (m *MSAC) DecodeBoolAdapt(cdf []uint16) bool {
	bit := m.DecodeBool(cdf[0])
	if !m.disableCDFUpdate {
		adaptBool(cdf, bit)
	}
	return bit
}

// adaptBool updates a 2-entry adaptive boolean CDF after a decode, per the
// rate(count) rule in §4.B: the step shrinks as the running count grows
// past 2, 4 and 32 symbols.
func adaptBool(cdf []uint16, bit bool) {
	count := cdf[1]
	rate := adaptRate(count)
	if bit {
		cdf[0] -= cdf[0] >> rate
	} else {
		cdf[0] += ((1 << cdfProb) - cdf[0]) >> rate
	}
	if count < adaptCountCap {
		cdf[1] = count + 1
	}
}

// adaptRate returns the CDF update shift for a given running symbol count:
// it starts fast and slows at the 2, 4 and 32 symbol thresholds in §4.B.
func adaptRate(count uint16) uint16 {
	switch {
	case count < 2:
		return 3
	case count < 4:
		return 4
	case count < 32:
		return 5
	default:
		return 6
	}
}

// DecodeSymbolAdapt decodes a symbol in [0, n) from an (n+1)-entry CDF
// (n cumulative thresholds plus a trailing adaptation counter) and adapts
// every entry proportionally to the observed symbol, per §4.B.
func (m *MSAC) DecodeSymbolAdapt(cdf []uint16, n int) int {
	prevRng := m.rng
	var sym int
	accum := uint32(0)
	for sym = 0; sym < n-1; sym++ {
		split := 1 + (((prevRng - 1) * uint32((1<<cdfProb)-cdf[sym])) >> cdfProb)
		if m.dif>>16 < split+accum {
			m.rng = split
			break
		}
		accum += split
		m.rng = prevRng - accum
	}
	m.dif -= accum << 16
	m.renorm()

	if !m.disableCDFUpdate {
		adaptSymbol(cdf, n, sym)
	}
	return sym
}

// adaptSymbol updates an n-symbol CDF toward the decoded symbol sym, scaling
// the step by the running count exactly as adaptBool does for the boolean
// case.
func adaptSymbol(cdf []uint16, n, sym int) {
	count := cdf[n]
	rate := adaptRate(count)
	for i := 0; i < n-1; i++ {
		if i >= sym {
			cdf[i] -= cdf[i] >> rate
		} else {
			cdf[i] += ((1 << cdfProb) - cdf[i]) >> rate
		}
	}
	if count < adaptCountCap {
		cdf[n] = count + 1
	}
}

// DecodeUniform decodes a value uniformly distributed over [0, n) by
// decoding raw, equiprobable bits from the range coder (a bypass read with
// prob = 1<<(cdfProb-1) per bit).
func (m *MSAC) DecodeUniform(n int) int {
	if n <= 1 {
		return 0
	}
	w := 0
	for (1 << uint(w)) < n {
		w++
	}
	m1 := (1 << uint(w)) - n
	v := m.DecodeBools(w - 1)
	if v < m1 {
		return v
	}
	extra := m.DecodeBools(1)
	return (v << 1) - m1 + extra
}

// DecodeBools decodes n raw, equiprobable bits and returns them packed
// MSB-first into the low n bits of the result.
func (m *MSAC) DecodeBools(n int) int {
	v := 0
	for i := 0; i < n; i++ {
		bit := 0
		if m.DecodeBool(1 << (cdfProb - 1)) {
			bit = 1
		}
		v = (v << 1) | bit
	}
	return v
}

// DecodeSubexp decodes an adaptive sub-exponential-coded value against
// reference ref, over a value domain of size n with starting order k,
// mirroring bits.BitReader.ReadSubExp but sourcing its raw bits from
// DecodeBools instead of the plain bit reader.
func (m *MSAC) DecodeSubexp(ref, n, k int) int {
	i, mk := 0, 0
	for {
		b2 := k
		if i != 0 {
			b2 = k + i - 1
		}
		a := 1 << uint(b2)
		if n <= mk+3*a {
			v := m.DecodeUniform(n - mk)
			return invRecenter(ref, v+mk)
		}
		if m.DecodeBools(1) == 1 {
			i++
			mk += a
			continue
		}
		v := m.DecodeBools(b2)
		return invRecenter(ref, v+mk)
	}
}
