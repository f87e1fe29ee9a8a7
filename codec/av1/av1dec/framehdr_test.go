/*
DESCRIPTION
  framehdr_test.go tests Frame Header OBU parsing for a reduced-still-
  picture key frame against a hand-built bitstream.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import "testing"

func TestNewFrameHeaderReducedStillPictureKeyFrame(t *testing.T) {
	seq := &SeqHeader{
		ReducedStillPictureHeader: true,
		MaxFrameWidth:             64,
		MaxFrameHeight:            64,
		SeqForceScreenContentTools: 2,
		SeqForceIntegerMV:          2,
		EnableCDEF:                true,
		EnableRestoration:         true,
		ColorConfig: ColorConfig{
			MonoChrome: false,
		},
	}

	// Hand-encoded uncompressed_header() bits for this sequence, field by
	// field:
	// disable_cdf_update=0, allow_screen_content_tools=0,
	// render_and_frame_size_differ=0, uniform_tile_spacing_flag=1,
	// base_q_idx=10, all delta_coded flags=0, using_qmatrix=0,
	// segmentation_enabled=0, delta_q_present=0, loop filter levels/
	// sharpness/delta_enabled all 0, cdef fields all 0, lr_type x3=0,
	// tx_mode_select=0, reduced_tx_set=0.
	payload := []byte{0x10, 0xa0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	f, err := NewFrameHeader(payload, seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type != frameKey {
		t.Errorf("Type = %v, want frameKey", f.Type)
	}
	if !f.ShowFrame {
		t.Error("expected ShowFrame")
	}
	if f.DisableCDFUpdate {
		t.Error("DisableCDFUpdate = true, want false")
	}
	if f.AllowScreenContentTools {
		t.Error("AllowScreenContentTools = true, want false")
	}
	if !f.ForceIntegerMV {
		t.Error("expected ForceIntegerMV forced true for intra frame")
	}
	if f.PrimaryRefFrame != primaryRefNone {
		t.Errorf("PrimaryRefFrame = %d, want %d", f.PrimaryRefFrame, primaryRefNone)
	}
	if f.RefreshFrameFlags != 0xff {
		t.Errorf("RefreshFrameFlags = %#x, want 0xff", f.RefreshFrameFlags)
	}
	if f.FrameWidth != 64 || f.FrameHeight != 64 {
		t.Errorf("FrameWidth=%d FrameHeight=%d, want 64,64", f.FrameWidth, f.FrameHeight)
	}
	if f.RenderWidth != 64 || f.RenderHeight != 64 {
		t.Errorf("RenderWidth=%d RenderHeight=%d, want 64,64", f.RenderWidth, f.RenderHeight)
	}
	if f.Tiles.Log2Cols != 0 || f.Tiles.Log2Rows != 0 {
		t.Errorf("Log2Cols=%d Log2Rows=%d, want 0,0", f.Tiles.Log2Cols, f.Tiles.Log2Rows)
	}
	if len(f.Tiles.ColStartSb) != 2 || f.Tiles.ColStartSb[1] != 1 {
		t.Errorf("ColStartSb = %v, want [0 1]", f.Tiles.ColStartSb)
	}
	if f.BaseQIdx != 10 {
		t.Errorf("BaseQIdx = %d, want 10", f.BaseQIdx)
	}
	if f.DeltaQYDc != 0 || f.DeltaQUDc != 0 || f.DeltaQVDc != 0 {
		t.Errorf("expected all delta-Q fields zero, got YDc=%d UDc=%d VDc=%d", f.DeltaQYDc, f.DeltaQUDc, f.DeltaQVDc)
	}
	if f.Segmentation.Enabled {
		t.Error("Segmentation.Enabled = true, want false")
	}
	if f.TxMode != txModeLargest {
		t.Errorf("TxMode = %v, want txModeLargest", f.TxMode)
	}
	if f.ReducedTxSet {
		t.Error("ReducedTxSet = true, want false")
	}
	if f.CDEF.BitsLog2 != 0 {
		t.Errorf("CDEF.BitsLog2 = %d, want 0", f.CDEF.BitsLog2)
	}
	for i, typ := range f.LR.Type {
		if typ != restoreNone {
			t.Errorf("LR.Type[%d] = %v, want restoreNone", i, typ)
		}
	}
}

func TestNewFrameHeaderShowExistingFrame(t *testing.T) {
	seq := &SeqHeader{}
	// show_existing_frame=1, frame_to_show_map_idx=3 (011) -> 1011 then pad:
	// 1 011 0000 = 0xb0.
	payload := []byte{0xb0}

	f, err := NewFrameHeader(payload, seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.ShowExistingFrame {
		t.Error("expected ShowExistingFrame")
	}
	if f.FrameToShowMapIdx != 3 {
		t.Errorf("FrameToShowMapIdx = %d, want 3", f.FrameToShowMapIdx)
	}
}
