/*
NAME
  scan.go

DESCRIPTION
  scan.go provides OBU framing-level scanning utilities: finding the type of
  the first substantive OBU in a buffer, and trimming a bytestream so that it
  begins at a sequence header (the point from which a decoder can start
  cold, analogous to seeking to an SPS in an H.264 bytestream).

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

	"github.com/ausocean/av1dec/codec/codecutil"
)

// OBUType returns the obu_type of the first substantive OBU in n, a
// low-overhead-format bytestream. Temporal delimiters carry no payload of
// their own and are skipped so the caller sees the type of the OBU they
// actually care about.
func OBUType(n []byte) (int, error) {
	c := codecutil.NewByteScanner(bytes.NewReader(n), make([]byte, len(n)))
	for {
		_, typ, err := readOBU(c)
		if err != nil {
			return 0, errNotEnoughBytes
		}
		if typ != obuTemporalDelimiter {
			return int(typ), nil
		}
	}
}

// TrimToKeyframe trims a low-overhead-format bytestream so that it begins
// at the first obu_sequence_header, the point a decoder can start cold
// from. Any leading bytes before that OBU (left over from a truncated
// access unit) are dropped.
func TrimToKeyframe(n []byte) ([]byte, error) {
	c := codecutil.NewByteScanner(bytes.NewReader(n), make([]byte, len(n)))
	off := 0
	for {
		raw, typ, err := readOBU(c)
		if err != nil {
			return nil, errNotEnoughBytes
		}
		if typ == obuSequenceHeader {
			return n[off:], nil
		}
		off += len(raw)
	}
}
