/*
NAME
  scan_test.go

DESCRIPTION
  scan_test.go provides tests for the scanning utilities in scan.go.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package obu

import (
	"bytes"
	"testing"
)

func TestOBUTypeSkipsTemporalDelimiter(t *testing.T) {
	stream := append(buildOBU(obuTemporalDelimiter, nil), buildOBU(obuSequenceHeader, []byte{1})...)
	typ, err := OBUType(stream)
	if err != nil {
		t.Fatalf("OBUType: %v", err)
	}
	if typ != int(obuSequenceHeader) {
		t.Errorf("OBUType = %d, want %d", typ, obuSequenceHeader)
	}
}

func TestOBUTypeNotEnoughBytes(t *testing.T) {
	_, err := OBUType([]byte{byte(obuSequenceHeader)<<3 | 1<<1})
	if err != errNotEnoughBytes {
		t.Errorf("OBUType on truncated input: %v, want errNotEnoughBytes", err)
	}
}

func TestTrimToKeyframeDropsLeadingJunk(t *testing.T) {
	junk := buildOBU(3, []byte{0xff})
	seq := buildOBU(obuSequenceHeader, []byte{1, 2})
	frame := buildOBU(4, []byte{3})
	stream := append(append(append([]byte{}, junk...), seq...), frame...)

	trimmed, err := TrimToKeyframe(stream)
	if err != nil {
		t.Fatalf("TrimToKeyframe: %v", err)
	}
	want := append(append([]byte{}, seq...), frame...)
	if !bytes.Equal(trimmed, want) {
		t.Errorf("TrimToKeyframe = %v, want %v", trimmed, want)
	}
}

func TestTrimToKeyframeNoSequenceHeader(t *testing.T) {
	stream := buildOBU(3, []byte{1})
	_, err := TrimToKeyframe(stream)
	if err != errNotEnoughBytes {
		t.Errorf("TrimToKeyframe with no sequence header: %v, want errNotEnoughBytes", err)
	}
}
