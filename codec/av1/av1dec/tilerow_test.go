package av1dec

import "testing"

func newTestTileRowDriver(payload []byte, seq *SeqHeader, fh *FrameHeader, frameWidth4, frameHeight4 int) *tileRowDriver {
	bp := newTestBlockParser(payload, seq, fh)
	return newTileRowDriver(bp, seq, fh, 0, frameWidth4, frameWidth4, frameHeight4)
}

func TestDecodeRowAdvancesProgress(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	d := newTestTileRowDriver(make([]byte, 64), seq, fh, 16, 16)

	if err := d.decodeRow(0); err != nil {
		t.Fatalf("decodeRow: %v", err)
	}
	if d.Progress() != 1 {
		t.Errorf("Progress() = %d, want 1", d.Progress())
	}
}

func TestMaybeDecodeRestUnitSkipsOffGrid(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	fh.LR.Type[0] = restoreWiener
	d := newTestTileRowDriver(make([]byte, 16), seq, fh, 16, 16)

	before := d.state.prevRestUnit[0]
	if err := d.maybeDecodeRestUnit(0, 4, 4); err != nil {
		t.Fatalf("maybeDecodeRestUnit: %v", err)
	}
	if d.state.prevRestUnit[0] != before {
		t.Error("off-grid superblock position decoded a restoration unit")
	}
}

func TestMaybeDecodeRestUnitWienerUpdatesState(t *testing.T) {
	seq := &SeqHeader{}
	fh := &FrameHeader{Type: frameKey, BaseQIdx: 40}
	fh.LR.Type[0] = restoreWiener
	d := newTestTileRowDriver(make([]byte, 16), seq, fh, 16, 16)

	if err := d.maybeDecodeRestUnit(0, 0, 0); err != nil {
		t.Fatalf("maybeDecodeRestUnit: %v", err)
	}
	if d.state.prevRestUnit[0].Type != restoreWiener {
		t.Errorf("prevRestUnit[0].Type = %v, want restoreWiener", d.state.prevRestUnit[0].Type)
	}
}
