package av1dec

import "testing"

func newTestBlockParser(payload []byte, seq *SeqHeader, fh *FrameHeader) *blockParser {
	msac := NewMSAC(payload, false)
	cdf := NewCDFTable(int(fh.BaseQIdx))
	ctx := newTileContext(4, 4, 32)
	return newBlockParser(msac, cdf, ctx, seq, fh)
}

func TestDecodeBlockIntraKeyFrame(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	p := newTestBlockParser([]byte{0x4a, 0x9c, 0x1f, 0x77, 0x3e, 0x20, 0x00, 0x00}, seq, fh)

	b, err := p.decodeBlock(0, 0, 2, 2, true)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	if b.IsInter {
		t.Error("IsInter = true on an intra-only frame")
	}
	if b.BX != 0 || b.BY != 0 || b.BW4 != 2 || b.BH4 != 2 {
		t.Errorf("block geometry = (%d,%d,%d,%d), want (0,0,2,2)", b.BX, b.BY, b.BW4, b.BH4)
	}
}

func TestDecodeBlockWritesNeighbourContext(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	p := newTestBlockParser([]byte{0x4a, 0x9c, 0x1f, 0x77, 0x3e, 0x20, 0x00, 0x00}, seq, fh)

	b, err := p.decodeBlock(0, 0, 2, 2, true)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	above := p.ctx.aboveAt(0)
	if above.intra != !b.IsInter {
		t.Errorf("above.intra = %v, want %v", above.intra, !b.IsInter)
	}
	if above.txSize != b.TxSize {
		t.Errorf("above.txSize = %d, want %d", above.txSize, b.TxSize)
	}
	left := p.ctx.leftAt(1)
	if left.refFrame != b.RefFrame[0] {
		t.Errorf("left.refFrame = %d, want %d", left.refFrame, b.RefFrame[0])
	}
}

func TestDecodeBlockSkipModeForcesSkip(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{
		Type:            frameInter,
		BaseQIdx:        40,
		SkipModePresent: true,
	}
	p := newTestBlockParser([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, seq, fh)
	// skip_mode is the first symbol decoded, read against ZeroMVMode[0]. A
	// freshly primed coder has dif>>16 == 0, below any split, so it decodes
	// false here; the check below holds for whichever value is decoded.
	above := p.ctx.aboveAt(0)
	left := p.ctx.leftAt(0)
	_ = above
	_ = left

	b, err := p.decodeBlock(0, 0, 2, 2, true)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	if b.SkipMode && !b.Skip {
		t.Error("SkipMode implies Skip")
	}
}

func TestReadSegmentIDInheritsWithoutUpdateMap(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	fh.Segmentation.Enabled = true
	fh.Segmentation.UpdateMap = false
	fh.Segmentation.LastActiveSegID = 5
	p := newTestBlockParser([]byte{0, 0, 0, 0}, seq, fh)

	above := neighbourUnit{segID: 3}
	left := neighbourUnit{segID: 3}
	got := p.readSegmentID(above, left)
	if got != 3 {
		t.Errorf("readSegmentID = %d, want 3 (inherited, clipped to LastActiveSegID)", got)
	}
}

func TestNegDeinterleaveRoundTrips(t *testing.T) {
	for ref := 0; ref < 6; ref++ {
		seen := make(map[int]bool)
		for diff := 0; diff < 6; diff++ {
			got := negDeinterleave(diff, ref, 6)
			if got < 0 || got >= 6 {
				t.Errorf("negDeinterleave(%d,%d,6) = %d, out of range", diff, ref, got)
			}
			if seen[got] {
				t.Errorf("negDeinterleave(%d,%d,6) = %d, repeats an earlier result", diff, ref, got)
			}
			seen[got] = true
		}
	}
	if got := negDeinterleave(3, 0, 6); got != 3 {
		t.Errorf("negDeinterleave(3,0,6) = %d, want 3 (ref=0 passthrough)", got)
	}
}

func TestMaxTxSizeForBlock(t *testing.T) {
	cases := []struct {
		bw4, bh4 int
		want     uint8
	}{
		{1, 1, 0},
		{2, 2, 1},
		{4, 4, 2},
		{8, 8, 3},
		{16, 16, 4},
		{16, 2, 1},
	}
	for _, c := range cases {
		if got := maxTxSizeForBlock(c.bw4, c.bh4); got != c.want {
			t.Errorf("maxTxSizeForBlock(%d,%d) = %d, want %d", c.bw4, c.bh4, got, c.want)
		}
	}
}

func TestReadSingleRefSplitsForwardBackward(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameInter, BaseQIdx: 40}
	p := newTestBlockParser([]byte{0x00, 0x00, 0x00, 0x00}, seq, fh)
	ref := p.readSingleRef(0)
	if ref < 0 || ref > 6 {
		t.Errorf("readSingleRef = %d, want in [0,6]", ref)
	}
}

func TestDecodeIntrabcFallsBackToFixedEdgeVector(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40, AllowIntrabc: true}
	p := newTestBlockParser([]byte{0x00, 0x00, 0x00, 0x00}, seq, fh)
	b := &blockInfo{BX: 2, BY: 1, BW4: 2, BH4: 2}
	if err := p.decodeIntrabc(b); err != nil {
		t.Fatalf("decodeIntrabc: %v", err)
	}
	if !b.IsIntrabc {
		t.Error("IsIntrabc = false")
	}
	if b.RefFrame[0] != -1 {
		t.Errorf("RefFrame[0] = %d, want -1", b.RefFrame[0])
	}
	// No spatial candidate and BY inside the first superblock row: the base
	// is (0, -512-2048), and a zero payload decodes mv_joint ZERO, so no
	// residual is added.
	if want := (mv{Row: 0, Col: -2560}); b.MV[0] != want {
		t.Errorf("MV[0] = %+v, want %+v", b.MV[0], want)
	}
}
