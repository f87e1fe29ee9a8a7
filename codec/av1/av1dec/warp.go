/*
DESCRIPTION
  warp.go derives a block's local warp-motion model from matching-ref
  neighbour samples, used by the motion-mode branch of the block parser
  when motion_mode selects LOCALWARP.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package av1dec

import (
	"gonum.org/v1/gonum/mat"
)

// warpParamType enumerates the derived global/local motion model kind.
type warpParamType uint8

const (
	warpIdentity warpParamType = iota
	warpTranslation
	warpRotZoom
	warpAffine
)

// warpSample is one (source, target) 2-D correspondence collected from a
// matching-ref neighbour, as frame pixel positions (4x4 index times 4).
type warpSample struct {
	SrcX, SrcY int32
	DstX, DstY int32
}

// warpModel holds a derived affine motion model: the six parameters of
//
//	dstX = Params[2]*srcX + Params[3]*srcY + Params[0]
//	dstY = Params[4]*srcX + Params[5]*srcY + Params[1]
type warpModel struct {
	Type   warpParamType
	Params [6]float64
}

// maxWarpSamples is the warp-model derivation's input cap, per §4.F.1.
const maxWarpSamples = 8

// sampleMVThreshold returns the maximum per-sample MV-difference from the
// block's own MV a candidate sample may have to be kept, per §4.F.1:
// 4 * clamp(max(bw4, bh4), 4, 28).
func sampleMVThreshold(bw4, bh4 int) int32 {
	d := maxi(bw4, bh4)
	d = clip3(4, 28, d)
	return int32(4 * d)
}

// filterSamples keeps only samples whose derived MV differs from blockMV
// by no more than sampleMVThreshold(bw4,bh4), returning at least one
// sample (the first) if every candidate would otherwise be rejected, per
// §4.F.1's "if none, keep one" fallback.
func filterSamples(samples []warpSample, blockMV mv, bw4, bh4 int) []warpSample {
	if len(samples) == 0 {
		return nil
	}
	threshold := sampleMVThreshold(bw4, bh4)
	var kept []warpSample
	for _, s := range samples {
		mvX := int32(s.DstX - s.SrcX)
		mvY := int32(s.DstY - s.SrcY)
		if absi(int(mvX-blockMV.Col)) <= int(threshold) && absi(int(mvY-blockMV.Row)) <= int(threshold) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return samples[:1]
	}
	if len(kept) > maxWarpSamples {
		kept = kept[:maxWarpSamples]
	}
	return kept
}

// deriveWarpModel solves the least-squares affine fit over samples (at
// least one, per filterSamples) and applies the shear-parameter
// normalization a valid AFFINE model must pass. If the solve or the shear
// check fails, the model falls back to IDENTITY (pure translation), per
// §4.F.1.
func deriveWarpModel(samples []warpSample, blockMV mv) warpModel {
	if len(samples) < 2 {
		return translationOnly(blockMV)
	}

	n := len(samples)
	a := mat.NewDense(2*n, 4, nil)
	b := mat.NewVecDense(2*n, nil)
	for i, s := range samples {
		sx, sy := float64(s.SrcX), float64(s.SrcY)
		dx, dy := float64(s.DstX), float64(s.DstY)

		// dstX = p0 + p2*srcX + p3*srcY
		a.SetRow(2*i, []float64{1, 0, sx, sy})
		b.SetVec(2*i, dx)

		// dstY = p1 - p3*srcX + p2*srcY  (rotzoom/affine shear coupling)
		a.SetRow(2*i+1, []float64{0, 1, sy, -sx})
		b.SetVec(2*i+1, dy)
	}

	var params mat.VecDense
	if err := params.SolveVec(a, b); err != nil {
		return translationOnly(blockMV)
	}

	var m warpModel
	m.Params[0] = params.AtVec(0)
	m.Params[1] = params.AtVec(1)
	m.Params[2] = params.AtVec(2)
	m.Params[5] = params.AtVec(2)
	m.Params[3] = params.AtVec(3)
	m.Params[4] = -params.AtVec(3)

	// §4.F.1: the model is AFFINE only once both the least-squares solve
	// and the shear-parameter normalization succeed; either failing falls
	// back to IDENTITY (pure translation).
	if !shearValid(m) {
		return translationOnly(blockMV)
	}
	m.Type = warpAffine
	return m
}

// translationOnly returns the IDENTITY-type fallback model: a pure
// translation by the block's own MV, used whenever the least-squares
// solve or shear normalization cannot produce a valid AFFINE model.
func translationOnly(blockMV mv) warpModel {
	return warpModel{
		Type:   warpIdentity,
		Params: [6]float64{float64(blockMV.Col), float64(blockMV.Row), 1, 0, 0, 1},
	}
}

// shearValid reports whether m's linear part is non-degenerate: its
// determinant must be bounded away from zero. The signs of the diagonal
// scale terms are not checked.
func shearValid(m warpModel) bool {
	det := m.Params[2]*m.Params[5] - m.Params[3]*m.Params[4]
	const minDet = 1e-6
	return det > minDet || det < -minDet
}
