/*
DESCRIPTION
  tables.go bakes in the read-only baseline CDF constants the parser falls
  back to whenever a frame has no primary reference to clone context from
  (primary_ref_frame == NONE), keyed by the frame's base quantiser index.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package av1dec

// numQCtx is the number of baseline quantiser contexts the default tables
// are keyed by, matching the four-way baseline split called for in §4.C.
const numQCtx = 4

// qCtx maps a base_q_idx in [0,255] onto one of the four baseline CDF
// contexts.
func qCtx(baseQIdx int) int {
	switch {
	case baseQIdx <= 20:
		return 0
	case baseQIdx <= 60:
		return 1
	case baseQIdx <= 120:
		return 2
	default:
		return 3
	}
}

// defaultPartitionCDF holds the baseline partition CDFs for each of the
// four quantiser contexts and block-level context, sized for the ten
// partition shapes (4.G: NONE, H, V, SPLIT, T_TOP_SPLIT, T_BOTTOM_SPLIT,
// T_LEFT_SPLIT, T_RIGHT_SPLIT, H4, V4) plus trailing counter. Entries are
// expressed as ascending 15-bit cumulative probabilities as required by the
// MSAC's adaptive-symbol convention (§4.B).
var defaultPartitionCDF = [numQCtx][11]uint16{
	0: {18888, 25543, 27803, 28486, 29320, 29983, 30333, 31181, 31231, 31826, 0},
	1: {17919, 25098, 27609, 28502, 29375, 30023, 30398, 31203, 31261, 31861, 0},
	2: {17036, 24686, 27427, 28515, 29432, 30068, 30466, 31227, 31292, 31896, 0},
	3: {16059, 24209, 27206, 28531, 29494, 30119, 30538, 31255, 31327, 31931, 0},
}

// defaultSkipCDF is the baseline probability of skip=0 for each of three
// neighbour-context buckets, keyed by quantiser context; the second entry
// of each pair is the adaptation counter, which always starts at 0.
var defaultSkipCDF = [numQCtx][3][2]uint16{
	0: {{31671, 0}, {16515, 0}, {4576, 0}},
	1: {{31481, 0}, {16301, 0}, {4395, 0}},
	2: {{31258, 0}, {16101, 0}, {4207, 0}},
	3: {{31022, 0}, {15882, 0}, {4012, 0}},
}

// defaultIntraYModeCDF is the baseline y-mode CDF for keyframes, keyed by
// quantiser context, covering the 13 intra prediction modes.
var defaultIntraYModeCDF = [numQCtx][14]uint16{
	0: {15588, 17027, 19338, 20218, 20682, 21110, 21825, 23244, 24189, 28165, 29093, 30466, 32023, 0},
	1: {15313, 16892, 19204, 20104, 20581, 21021, 21751, 23192, 24162, 28179, 29122, 30502, 32037, 0},
	2: {15033, 16753, 19066, 19985, 20476, 20928, 21673, 23137, 24133, 28192, 29150, 30536, 32049, 0},
	3: {14748, 16608, 18923, 19862, 20367, 20831, 21592, 23080, 24102, 28204, 29177, 30569, 32060, 0},
}

// baselinePartitionCDF returns a fresh copy of the partition baseline for
// base_q_idx, used to seed a tile's CDF table on a NONE primary reference.
func baselinePartitionCDF(baseQIdx int) [11]uint16 {
	return defaultPartitionCDF[qCtx(baseQIdx)]
}

// baselineSkipCDF returns a fresh copy of the skip baseline for base_q_idx.
func baselineSkipCDF(baseQIdx int) [3][2]uint16 {
	return defaultSkipCDF[qCtx(baseQIdx)]
}

// baselineIntraYModeCDF returns a fresh copy of the keyframe y-mode
// baseline for base_q_idx.
func baselineIntraYModeCDF(baseQIdx int) [14]uint16 {
	return defaultIntraYModeCDF[qCtx(baseQIdx)]
}

// MV residual baseline CDFs, per component (row=0, col=1). Unlike
// Partition/Skip/IntraYMode, these are not keyed by quantiser context: the
// AV1 spec's own default_nmv_context is quantiser-independent, so these are
// flat arrays rather than [numQCtx]-indexed ones.

// defaultMVJointCDF is the baseline mv_joint 4-way CDF (ZERO, HNZVZ, HZVNZ,
// HNZVNZ).
var defaultMVJointCDF = [5]uint16{20000, 24000, 28000, 28000, 0}

// defaultMVClassCDF is the baseline mv_class 11-way CDF (MV_CLASS_0..10).
var defaultMVClassCDF = [12]uint16{28672, 30720, 31744, 32256, 32512, 32640, 32704, 32736, 32752, 32760, 32760, 0}

// defaultMVClass0FRCDF is the baseline mv_class0_fr 4-way CDF.
var defaultMVClass0FRCDF = [5]uint16{10000, 18000, 26000, 26000, 0}

// defaultMVFRCDF is the baseline mv_fr 4-way CDF, shared by class > 0.
var defaultMVFRCDF = [5]uint16{8000, 16000, 24000, 24000, 0}

// baselineMVJointCDF returns a fresh copy of the mv_joint baseline.
func baselineMVJointCDF() [5]uint16 { return defaultMVJointCDF }

// baselineMVSignCDF returns a fresh copy of the mv_sign baseline, an
// unbiased binary split.
func baselineMVSignCDF() [2]uint16 { return [2]uint16{16384, 0} }

// baselineMVClassCDF returns a fresh copy of the mv_class baseline.
func baselineMVClassCDF() [12]uint16 { return defaultMVClassCDF }

// baselineMVClass0BitCDF returns a fresh copy of the mv_class0_bit baseline.
func baselineMVClass0BitCDF() [2]uint16 { return [2]uint16{16384, 0} }

// baselineMVClass0FRCDF returns a fresh copy of the mv_class0_fr baseline.
func baselineMVClass0FRCDF() [5]uint16 { return defaultMVClass0FRCDF }

// baselineMVClass0HPCDF returns a fresh copy of the mv_class0_hp baseline.
func baselineMVClass0HPCDF() [2]uint16 { return [2]uint16{16384, 0} }

// baselineMVBitsCDF returns a fresh copy of one mv_bit baseline, shared
// across all 10 bit positions of class > 0 decode.
func baselineMVBitsCDF() [2]uint16 { return [2]uint16{16384, 0} }

// baselineMVFRCDF returns a fresh copy of the mv_fr baseline.
func baselineMVFRCDF() [5]uint16 { return defaultMVFRCDF }

// baselineMVHPCDF returns a fresh copy of the mv_hp baseline.
func baselineMVHPCDF() [2]uint16 { return [2]uint16{16384, 0} }
