/*
NAME
  lex_test.go

DESCRIPTION
  lex_test.go provides tests for the lexer in lex.go.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

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
	"io"
	"testing"
)

// buildOBU returns the raw low-overhead-format bytes for one OBU of the
// given type carrying payload, always with obu_has_size_field set and no
// extension, with payload short enough for a one-byte leb128 size.
func buildOBU(typ obuType, payload []byte) []byte {
	if len(payload) >= 0x80 {
		panic("buildOBU: payload too long for a one-byte leb128 size in this test helper")
	}
	raw := []byte{byte(typ)<<3 | 1<<1, byte(len(payload))}
	return append(raw, payload...)
}

func TestLexSplitsAccessUnits(t *testing.T) {
	au1 := append(buildOBU(obuTemporalDelimiter, nil), buildOBU(obuSequenceHeader, []byte{1, 2})...)
	au2 := append(buildOBU(obuTemporalDelimiter, nil), buildOBU(3, []byte{9})...)
	src := bytes.NewReader(append(append([]byte{}, au1...), au2...))

	var dst bytes.Buffer
	err := Lex(&dst, src, 0)
	if err != io.EOF {
		t.Fatalf("Lex: %v, want io.EOF", err)
	}

	want := append(au1, au2...)
	if !bytes.Equal(dst.Bytes(), want) {
		t.Errorf("Lex wrote %v, want %v", dst.Bytes(), want)
	}
}

func TestLexWritesOneAccessUnitPerDelimiter(t *testing.T) {
	au1 := append(buildOBU(obuTemporalDelimiter, nil), buildOBU(obuSequenceHeader, nil)...)
	au2 := append(buildOBU(obuTemporalDelimiter, nil), buildOBU(3, nil)...)
	src := bytes.NewReader(append(append([]byte{}, au1...), au2...))

	var writes [][]byte
	r, w := io.Pipe()
	go func() {
		_ = Lex(w, src, 0)
		w.Close()
	}()
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			writes = append(writes, cp)
		}
		if err != nil {
			break
		}
	}
	if len(writes) != 2 {
		t.Fatalf("got %d writes, want 2", len(writes))
	}
	if !bytes.Equal(writes[0], au1) {
		t.Errorf("first write = %v, want %v", writes[0], au1)
	}
	if !bytes.Equal(writes[1], au2) {
		t.Errorf("second write = %v, want %v", writes[1], au2)
	}
}

func TestLexUnexpectedEOFOnTruncatedOBU(t *testing.T) {
	full := buildOBU(obuSequenceHeader, []byte{1, 2, 3})
	src := bytes.NewReader(full[:len(full)-1])

	var dst bytes.Buffer
	err := Lex(&dst, src, 0)
	if err != io.ErrUnexpectedEOF {
		t.Errorf("Lex on truncated OBU: %v, want io.ErrUnexpectedEOF", err)
	}
}
