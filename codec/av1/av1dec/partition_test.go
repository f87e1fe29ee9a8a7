package av1dec

import "testing"

func newTestPartitionWalker(payload []byte, seq *SeqHeader, fh *FrameHeader, frameWidth4, frameHeight4 int) *partitionWalker {
	bp := newTestBlockParser(payload, seq, fh)
	return newPartitionWalker(bp, seq, frameWidth4, frameHeight4)
}

func TestDecodePartitionLeafDecodesOneBlock(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	w := newTestPartitionWalker([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, seq, fh, 16, 16)

	if err := w.decodePartition(0, 0, bl4); err != nil {
		t.Fatalf("decodePartition: %v", err)
	}
	above := w.ctx.aboveAt(0)
	if above.txSize == txSize64x64 {
		t.Error("leaf block never wrote its context back")
	}
}

func TestDecodePartitionBL8x8OnlyFourShapes(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	w := newTestPartitionWalker([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, seq, fh, 16, 16)
	shape := w.readShape(bl8, 0)
	if shape > partSplit {
		t.Errorf("readShape at BL_8x8 = %v, want one of NONE/H/V/SPLIT", shape)
	}
}

func TestDecodePartitionRejects422VerticalAtLeaf(t *testing.T) {
	seq := &SeqHeader{}
	seq.ColorConfig.Subsampling = chroma422
	err := (&partitionWalker{seq: seq}).validateShape(partV, bl8)
	if err != errInvalidPartition {
		t.Errorf("validateShape = %v, want errInvalidPartition", err)
	}
}

func TestDecodePartitionRejectsH4AtBL128(t *testing.T) {
	seq := &SeqHeader{}
	err := (&partitionWalker{seq: seq}).validateShape(partH4, bl128)
	if err != errInvalidPartition {
		t.Errorf("validateShape = %v, want errInvalidPartition", err)
	}
}

func TestDecodePartitionSkipsBlockOutsideFrame(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	w := newTestPartitionWalker([]byte{0, 0, 0, 0}, seq, fh, 2, 2)
	if err := w.decodePartition(4, 4, bl8); err != nil {
		t.Fatalf("decodePartition out of bounds: %v", err)
	}
}

func TestBlSizeUnits(t *testing.T) {
	if blSizeUnits(bl4) != 1 {
		t.Errorf("blSizeUnits(bl4) = %d, want 1", blSizeUnits(bl4))
	}
	if blSizeUnits(bl64) != 16 {
		t.Errorf("blSizeUnits(bl64) = %d, want 16", blSizeUnits(bl64))
	}
}
