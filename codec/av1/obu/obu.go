/*
NAME
  obu.go

DESCRIPTION
  obu.go provides the byte-level framing primitives shared by the OBU lexer
  and scanner: obu_header parsing and leb128 decoding for the low-overhead
  bitstream format, kept self-contained (no dependency on the full bit-level
  decoder in av1dec) since framing only needs to know an OBU's type and
  length, never its payload semantics.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package obu provides a low-overhead-format OBU bytestream lexer and
// framing-level scanning utilities.
package obu

import (
	"errors"
	"io"

	"github.com/ausocean/av1dec/codec/codecutil"
)

// obuType mirrors the bitstream's obu_type field. Only the values this
// package's framing logic branches on are named; every other value is
// passed through untouched.
type obuType uint8

const (
	obuSequenceHeader    obuType = 1
	obuTemporalDelimiter obuType = 2
)

var (
	errNotEnoughBytes = errors.New("obu: not enough bytes to read")
	errNoSizeField    = errors.New("obu: obu_has_size_field not set; low-overhead framing requires it")
	errLEB128Overrun  = errors.New("obu: leb128 value exceeds 8 bytes")
)

// readOBU reads one whole low-overhead-format OBU (obu_header(), its
// optional extension, the mandatory leb128 obu_size, and the payload bytes
// that size names) from c, returning the raw bytes spanning all of it and
// the OBU's obu_type. Every OBU in the low-overhead format carries a size
// field; readOBU rejects one that doesn't rather than guess a length.
func readOBU(c *codecutil.ByteScanner) (raw []byte, typ obuType, err error) {
	first, err := c.ReadByte()
	if err != nil {
		return nil, 0, err
	}
	raw = append(raw, first)

	typ = obuType((first >> 3) & 0xf)
	extFlag := first&(1<<2) != 0
	hasSize := first&(1<<1) != 0

	if extFlag {
		ext, err := c.ReadByte()
		if err != nil {
			return nil, 0, io.ErrUnexpectedEOF
		}
		raw = append(raw, ext)
	}
	if !hasSize {
		return nil, 0, errNoSizeField
	}

	size, lebBytes, err := readLEB128(c)
	if err != nil {
		return nil, 0, err
	}
	raw = append(raw, lebBytes...)

	payload := make([]byte, size)
	for i := range payload {
		b, err := c.ReadByte()
		if err != nil {
			return nil, 0, io.ErrUnexpectedEOF
		}
		payload[i] = b
	}
	raw = append(raw, payload...)

	return raw, typ, nil
}

// readLEB128 decodes a leb128-coded unsigned integer from c, per the AV1
// bitstream's leb128() descriptor: up to 8 bytes, little-endian base-128
// groups with the MSB of each byte a continuation flag. It returns the raw
// bytes read alongside the decoded value.
func readLEB128(c *codecutil.ByteScanner) (value uint64, raw []byte, err error) {
	for i := 0; i < 8; i++ {
		b, err := c.ReadByte()
		if err != nil {
			return 0, nil, io.ErrUnexpectedEOF
		}
		raw = append(raw, b)
		value |= uint64(b&0x7f) << uint(i*7)
		if b&0x80 == 0 {
			return value, raw, nil
		}
	}
	return 0, nil, errLEB128Overrun
}
