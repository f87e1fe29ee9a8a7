/*
DESCRIPTION
  obuheader_test.go tests OBU header parsing for both the sized and
  extension-bearing variants.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import (
	"bytes"
	"testing"

	"github.com/ausocean/av1dec/codec/av1/av1dec/bits"
)

func TestNewOBUHeaderBasic(t *testing.T) {
	// obu_forbidden_bit=0, obu_type=2 (TEMPORAL_DELIMITER), ext=0, has_size=1,
	// reserved=0 -> 0 0010 0 1 0 = 0b00100010 = 0x22, then leb128 size=0.
	buf := []byte{0x22, 0x00}
	br := bits.NewBitReader(bytes.NewReader(buf))
	h, err := NewOBUHeader(br, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Type != obuTemporalDelimiter {
		t.Errorf("Type = %v, want TEMPORAL_DELIMITER", h.Type)
	}
	if !h.HasSizeField {
		t.Error("expected HasSizeField")
	}
	if h.Size != 0 {
		t.Errorf("Size = %d, want 0", h.Size)
	}
	if len(h.Payload) != 0 {
		t.Errorf("Payload len = %d, want 0", len(h.Payload))
	}
}

func TestNewOBUHeaderWithExtensionAndPayload(t *testing.T) {
	// obu_type=1 (SEQUENCE_HEADER), ext=1, has_size=1 -> 0 0001 1 1 0 = 0x1e.
	// extension: temporal_id=2(010), spatial_id=1(01), reserved=0(000) -> 01001000 = 0x48.
	// size leb128 = 2 (single byte, no continuation).
	// payload = {0xAB, 0xCD}.
	buf := []byte{0x1e, 0x48, 0x02, 0xAB, 0xCD}
	br := bits.NewBitReader(bytes.NewReader(buf))
	h, err := NewOBUHeader(br, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Type != obuSequenceHeader {
		t.Errorf("Type = %v, want SEQUENCE_HEADER", h.Type)
	}
	if h.Extension == nil {
		t.Fatal("expected non-nil Extension")
	}
	if h.Extension.TemporalID != 2 || h.Extension.SpatialID != 1 {
		t.Errorf("Extension = %+v, want TemporalID=2 SpatialID=1", h.Extension)
	}
	if !bytes.Equal(h.Payload, []byte{0xAB, 0xCD}) {
		t.Errorf("Payload = %x, want abcd", h.Payload)
	}
}

func TestNewOBUHeaderNoSizeFieldUsesPayloadLen(t *testing.T) {
	// obu_type=2, ext=0, has_size=0, reserved=0 -> 0 0010 0 0 0 = 0x20.
	buf := []byte{0x20, 0x11, 0x22, 0x33}
	br := bits.NewBitReader(bytes.NewReader(buf))
	h, err := NewOBUHeader(br, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.HasSizeField {
		t.Error("did not expect HasSizeField")
	}
	if !bytes.Equal(h.Payload, []byte{0x11, 0x22, 0x33}) {
		t.Errorf("Payload = %x, want 112233", h.Payload)
	}
}

func TestOBUTypeString(t *testing.T) {
	if got := obuFrame.String(); got != "FRAME" {
		t.Errorf("got %q, want FRAME", got)
	}
	if got := obuType(9).String(); got != "RESERVED(9)" {
		t.Errorf("got %q, want RESERVED(9)", got)
	}
}
