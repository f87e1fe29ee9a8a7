/*
DESCRIPTION
  fields_test.go tests the sticky-error field reader and its batch helpers.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import (
	"bytes"
	"testing"

	"github.com/ausocean/av1dec/codec/av1/av1dec/bits"
)

func TestFieldReaderStopsAfterError(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader([]byte{0xff}))
	r := newFieldReader(br)
	_ = r.readBits(8) // consumes the only byte.
	v := r.readBits(8) // should fail and latch.
	if r.err() == nil {
		t.Fatal("expected sticky error after reading past end of source")
	}
	if v != 0 {
		t.Errorf("got %d after error, want 0", v)
	}
}

func TestReadLEB128SingleByte(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader([]byte{0x05}))
	r := newFieldReader(br)
	got := r.readLEB128()
	if r.err() != nil {
		t.Fatalf("unexpected error: %v", r.err())
	}
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}

func TestReadLEB128MultiByte(t *testing.T) {
	// 0x81 0x01 -> continuation bit set on first byte, payload bits
	// 0000001 then 0000001 -> value = 1 | (1<<7) = 129.
	br := bits.NewBitReader(bytes.NewReader([]byte{0x81, 0x01}))
	r := newFieldReader(br)
	got := r.readLEB128()
	if r.err() != nil {
		t.Fatalf("unexpected error: %v", r.err())
	}
	if got != 129 {
		t.Errorf("got %d, want 129", got)
	}
}

func TestReadFieldsPopulatesInOrder(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader([]byte{0b10110000}))
	var a, b int
	err := readFields(br, []field{
		{loc: &a, name: "a", n: 2},
		{loc: &b, name: "b", n: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != 0b10 || b != 0b110 {
		t.Errorf("a=%b b=%b, want a=10 b=110", a, b)
	}
}

func TestReadFlagsPopulatesInOrder(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader([]byte{0b10100000}))
	var x, y, z bool
	err := readFlags(br, []flag{
		{loc: &x, name: "x"},
		{loc: &y, name: "y"},
		{loc: &z, name: "z"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !x || y || !z {
		t.Errorf("x=%v y=%v z=%v, want true,false,true", x, y, z)
	}
}

func TestByteAlignment(t *testing.T) {
	br := bits.NewBitReader(bytes.NewReader([]byte{0xf0, 0x12}))
	if _, err := br.ReadBits(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if br.ByteAligned() {
		t.Fatal("expected not byte aligned after reading 4 bits")
	}
	if err := byteAlignment(br); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !br.ByteAligned() {
		t.Fatal("expected byte aligned after byteAlignment")
	}
	v, err := br.ReadBits(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x12 {
		t.Errorf("got %#x, want 0x12", v)
	}
}
