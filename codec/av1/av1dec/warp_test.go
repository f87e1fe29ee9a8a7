package av1dec

import "testing"

func TestSampleMVThresholdClamps(t *testing.T) {
	if got := sampleMVThreshold(1, 1); got != 16 {
		t.Errorf("got %d, want 16 (clamped to min 4)", got)
	}
	if got := sampleMVThreshold(32, 32); got != 112 {
		t.Errorf("got %d, want 112 (clamped to max 28)", got)
	}
	if got := sampleMVThreshold(8, 8); got != 32 {
		t.Errorf("got %d, want 32", got)
	}
}

func TestFilterSamplesKeepsAtLeastOne(t *testing.T) {
	samples := []warpSample{
		{SrcX: 0, SrcY: 0, DstX: 1000, DstY: 1000},
	}
	got := filterSamples(samples, mv{}, 4, 4)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (fallback to first sample)", len(got))
	}
}

func TestFilterSamplesDropsOutliers(t *testing.T) {
	samples := []warpSample{
		{SrcX: 0, SrcY: 0, DstX: 4, DstY: 4},   // MV (4,4), within threshold of blockMV (4,4).
		{SrcX: 0, SrcY: 0, DstX: 1000, DstY: 0}, // MV (1000,0), far outside.
	}
	got := filterSamples(samples, mv{Row: 4, Col: 4}, 8, 8)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].DstX != 4 {
		t.Errorf("kept sample DstX = %d, want 4", got[0].DstX)
	}
}

func TestDeriveWarpModelFallsBackWithFewerThanTwoSamples(t *testing.T) {
	m := deriveWarpModel([]warpSample{{SrcX: 0, SrcY: 0, DstX: 4, DstY: 0}}, mv{Col: 4})
	if m.Type != warpIdentity {
		t.Errorf("Type = %v, want warpIdentity", m.Type)
	}
}

func TestDeriveWarpModelSolvesPureTranslation(t *testing.T) {
	samples := []warpSample{
		{SrcX: 0, SrcY: 0, DstX: 8, DstY: 4},
		{SrcX: 16, SrcY: 0, DstX: 24, DstY: 4},
		{SrcX: 0, SrcY: 16, DstX: 8, DstY: 20},
	}
	m := deriveWarpModel(samples, mv{Row: 4, Col: 8})
	if m.Type != warpAffine {
		t.Fatalf("Type = %v, want warpAffine for a well-conditioned fit", m.Type)
	}
	const tol = 1e-6
	if d := m.Params[0] - 8; d > tol || d < -tol {
		t.Errorf("Params[0] = %v, want ~8", m.Params[0])
	}
	if d := m.Params[1] - 4; d > tol || d < -tol {
		t.Errorf("Params[1] = %v, want ~4", m.Params[1])
	}
}
