/*
DESCRIPTION
  msac_test.go exercises the multi-symbol arithmetic coder on small
  hand-picked payloads, and tests the adaptation rules directly.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package av1dec

import "testing"

func TestAdaptRateThresholds(t *testing.T) {
	tests := []struct {
		count uint16
		want  uint16
	}{
		{0, 3},
		{1, 3},
		{2, 4},
		{3, 4},
		{4, 5},
		{31, 5},
		{32, 6},
		{100, 6},
	}
	for _, test := range tests {
		if got := adaptRate(test.count); got != test.want {
			t.Errorf("adaptRate(%d) = %d, want %d", test.count, got, test.want)
		}
	}
}

func TestAdaptBoolMovesTowardObservedSymbol(t *testing.T) {
	cdf := []uint16{1 << 14, 0} // prob(0) = 0.5, count 0.
	adaptBool(cdf, true)        // observed a 1: prob(0) should shrink.
	if cdf[0] >= 1<<14 {
		t.Errorf("prob did not decrease after observing 1: got %d", cdf[0])
	}
	if cdf[1] != 1 {
		t.Errorf("count = %d, want 1", cdf[1])
	}
}

func TestAdaptBoolCountCaps(t *testing.T) {
	cdf := []uint16{1 << 14, adaptCountCap}
	adaptBool(cdf, false)
	if cdf[1] != adaptCountCap {
		t.Errorf("count = %d, want capped at %d", cdf[1], adaptCountCap)
	}
}

func TestAdaptSymbolMonotone(t *testing.T) {
	// 4-symbol CDF (3 thresholds + trailing count), uniform start.
	cdf := []uint16{1 << 13, 1 << 14, 3 << 13, 0}
	before := append([]uint16(nil), cdf...)
	adaptSymbol(cdf, 4, 2)
	if cdf[3] != before[3]+1 {
		t.Errorf("count = %d, want %d", cdf[3], before[3]+1)
	}
	// Thresholds at and above the observed symbol index should move down,
	// those below should move up, matching adaptBool's per-bit rule.
	for i := 0; i < 3; i++ {
		if i >= 2 && cdf[i] >= before[i] {
			t.Errorf("threshold %d did not decrease: %d -> %d", i, before[i], cdf[i])
		}
		if i < 2 && cdf[i] <= before[i] {
			t.Errorf("threshold %d did not increase: %d -> %d", i, before[i], cdf[i])
		}
	}
}

func TestDecodeBoolsWithinPayloadKeepsErrorClear(t *testing.T) {
	// Four equiprobable bits (prob = 1<<14) take far fewer bits than the
	// 16-bit payload holds, so decoding them raises no out-of-data error.
	buf := []byte{0xb4, 0x00}
	m := NewMSAC(buf, false)
	if m.Err() != nil {
		t.Fatalf("unexpected error after init: %v", m.Err())
	}
	_ = m.DecodeBools(4)
	if m.Err() != nil {
		t.Fatalf("unexpected error mid-stream: %v", m.Err())
	}
}

func TestDecodeSymbolAdaptRange(t *testing.T) {
	cdf := []uint16{1 << 13, 1 << 14, 3 << 13, 0}
	m := NewMSAC([]byte{0x42, 0x17, 0x9c, 0x03}, false)
	sym := m.DecodeSymbolAdapt(cdf, 4)
	if sym < 0 || sym > 3 {
		t.Fatalf("decoded symbol %d out of range [0,4)", sym)
	}
}

func TestMSACLatchesOutOfData(t *testing.T) {
	m := NewMSAC(nil, true)
	for i := 0; i < 64; i++ {
		m.DecodeBools(1)
	}
	if m.Err() == nil {
		t.Error("expected sticky out-of-data error after exhausting empty payload")
	}
}

func TestDecodeUniformZeroRange(t *testing.T) {
	m := NewMSAC([]byte{0x00, 0x00}, true)
	if got := m.DecodeUniform(1); got != 0 {
		t.Errorf("DecodeUniform(1) = %d, want 0", got)
	}
}
