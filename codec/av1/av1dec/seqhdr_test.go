/*
DESCRIPTION
  seqhdr_test.go tests Sequence Header OBU parsing against a hand-built
  reduced-still-picture bitstream.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import "testing"

func TestNewSeqHeaderReducedStillPicture(t *testing.T) {
	// Hand-encoded reduced_still_picture_header sequence header:
	// profile=0, still_picture=1, reduced=1, seq_level_idx=0,
	// frame_width_bits_minus1=3, frame_height_bits_minus1=3,
	// max_frame_width_minus1=15, max_frame_height_minus1=15,
	// use_128x128_superblock=0, enable_filter_intra=1,
	// enable_intra_edge_filter=1, enable_superres=0, enable_cdef=1,
	// enable_restoration=1, high_bitdepth=0, mono_chrome=0,
	// color_description_present_flag=0, color_range=1,
	// chroma_sample_position=0, separate_uv_delta_q=0,
	// film_grain_params_present=0.
	payload := []byte{0x18, 0x0c, 0xff, 0xdb, 0x10}

	s, err := NewSeqHeader(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Profile != 0 {
		t.Errorf("Profile = %d, want 0", s.Profile)
	}
	if !s.StillPicture || !s.ReducedStillPictureHeader {
		t.Errorf("StillPicture=%v ReducedStillPictureHeader=%v, want both true", s.StillPicture, s.ReducedStillPictureHeader)
	}
	if s.MaxFrameWidth != 16 || s.MaxFrameHeight != 16 {
		t.Errorf("MaxFrameWidth=%d MaxFrameHeight=%d, want 16,16", s.MaxFrameWidth, s.MaxFrameHeight)
	}
	if s.Use128x128Superblock {
		t.Error("Use128x128Superblock = true, want false")
	}
	if !s.EnableFilterIntra || !s.EnableIntraEdgeFilter {
		t.Error("expected EnableFilterIntra and EnableIntraEdgeFilter set")
	}
	if s.EnableSuperres {
		t.Error("EnableSuperres = true, want false")
	}
	if !s.EnableCDEF || !s.EnableRestoration {
		t.Error("expected EnableCDEF and EnableRestoration set")
	}
	if s.ColorConfig.MonoChrome {
		t.Error("MonoChrome = true, want false")
	}
	if s.ColorConfig.Subsampling != chroma420 {
		t.Errorf("Subsampling = %d, want chroma420", s.ColorConfig.Subsampling)
	}
	if s.ColorConfig.BitDepth() != 8 {
		t.Errorf("BitDepth = %d, want 8", s.ColorConfig.BitDepth())
	}
	if s.FilmGrainParamsPresent {
		t.Error("FilmGrainParamsPresent = true, want false")
	}
	// Reduced-still-picture frames never carry explicit screen-content or
	// integer-mv selection; both fall back to the SELECT sentinel (2).
	if s.SeqForceScreenContentTools != 2 || s.SeqForceIntegerMV != 2 {
		t.Errorf("SeqForceScreenContentTools=%d SeqForceIntegerMV=%d, want 2,2", s.SeqForceScreenContentTools, s.SeqForceIntegerMV)
	}
}
