/*
DESCRIPTION
  bitreader_test.go provides testing for the bit reader's AV1-specific
  descriptor reads (signed, uniform, vlc, sub-exp) layered on top of the
  base ReadBits/PeekBits behaviour.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package bits

import (
	"bytes"
	"testing"
)

func TestReadSignedRoundTrip(t *testing.T) {
	tests := []struct {
		n int
		v int64
	}{
		{n: 3, v: 0},
		{n: 3, v: 7},
		{n: 3, v: -8},
		{n: 7, v: 63},
		{n: 7, v: -64},
	}
	for i, test := range tests {
		buf := encodeSigned(test.n, test.v)
		br := NewBitReader(bytes.NewReader(buf))
		got, err := br.ReadSigned(test.n)
		if err != nil {
			t.Fatalf("test %d: unexpected error: %v", i, err)
		}
		if got != test.v {
			t.Errorf("test %d: got %d, want %d", i, got, test.v)
		}
	}
}

// encodeSigned packs v into n+1 sign-extended MSB-first bits.
func encodeSigned(n int, v int64) []byte {
	total := n + 1
	bytesLen := (total + 7) / 8
	buf := make([]byte, bytesLen)
	u := uint64(v) & ((1 << uint(total)) - 1)
	for i := 0; i < total; i++ {
		bit := (u >> uint(total-1-i)) & 1
		if bit == 1 {
			buf[i/8] |= 1 << uint(7-i%8)
		}
	}
	return buf
}

func TestReadUniformRoundTrip(t *testing.T) {
	for _, rng := range []int{1, 2, 3, 5, 8, 9, 200} {
		for v := 0; v < rng; v++ {
			buf := encodeUniform(rng, v)
			br := NewBitReader(bytes.NewReader(buf))
			got, err := br.ReadUniform(rng)
			if err != nil {
				t.Fatalf("rng %d v %d: unexpected error: %v", rng, v, err)
			}
			if int(got) != v {
				t.Errorf("rng %d v %d: got %d", rng, v, got)
			}
		}
	}
}

// encodeUniform packs v according to the same ns(rng) scheme ReadUniform
// decodes, padded out to whole bytes with zeros (harmless trailing bits).
func encodeUniform(rng, v int) []byte {
	w := floorLog2(uint(rng)) + 1
	m := (1 << uint(w)) - rng
	var bits []int
	if v < m {
		for i := w - 2; i >= 0; i-- {
			bits = append(bits, (v>>uint(i))&1)
		}
	} else {
		x := v + m
		for i := w - 1; i >= 0; i-- {
			bits = append(bits, (x>>uint(i))&1)
		}
	}
	for len(bits)%8 != 0 {
		bits = append(bits, 0)
	}
	buf := make([]byte, len(bits)/8)
	for i, b := range bits {
		if b == 1 {
			buf[i/8] |= 1 << uint(7-i%8)
		}
	}
	return buf
}

func TestReadVLCSaturates(t *testing.T) {
	buf := make([]byte, 5) // 40 zero bits, never a terminating 1.
	br := NewBitReader(bytes.NewReader(buf))
	got, err := br.ReadVLC()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0xFFFFFFFF {
		t.Errorf("got %#x, want 0xFFFFFFFF", got)
	}
}

func TestReadVLCZero(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0x80})) // 1000 0000 => one bit, 0 zeros.
	got, err := br.ReadVLC()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestSatLatchesOnExhaustion(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0xff}))
	_ = br.Sat(8)
	if br.Err() != nil {
		t.Fatalf("unexpected latch after valid read: %v", br.Err())
	}
	got := br.Sat(8)
	if got != 0 {
		t.Errorf("got %d, want 0 once exhausted", got)
	}
	if br.Err() == nil {
		t.Error("expected sticky error to be latched")
	}
	// Subsequent reads stay zero-padded without re-erroring.
	if got := br.Sat(4); got != 0 {
		t.Errorf("got %d, want 0 on repeated saturated read", got)
	}
}

func TestInvRecenter(t *testing.T) {
	tests := []struct{ ref, v, want int }{
		{ref: 5, v: 20, want: 20},
		{ref: 5, v: 2, want: 6},
		{ref: 5, v: 3, want: 3},
	}
	for _, test := range tests {
		got := invRecenter(test.ref, test.v)
		if got != test.want {
			t.Errorf("invRecenter(%d, %d) = %d, want %d", test.ref, test.v, got, test.want)
		}
	}
}
