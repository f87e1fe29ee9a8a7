/*
DESCRIPTION
  seqhdr.go provides the structure and parser for the Sequence Header OBU:
  the profile, bit depth, chroma subsampling, superblock size and feature
  flags that stay immutable for the lifetime of a coded video sequence, as
  described in section 3 of the parsing core's data model.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
  mrmod <mcmoranbjr@gmail.com>
*/

package av1dec

import (
	"bytes"
	"fmt"

	"github.com/ausocean/av1dec/codec/av1/av1dec/bits"
)

// chromaSubsampling enumerates a sequence's chroma sampling format.
type chromaSubsampling uint8

// Chroma subsampling constants.
const (
	chromaMonochrome chromaSubsampling = iota
	chroma420
	chroma422
	chroma444
)

// SeqHeader describes a Sequence Header OBU, immutable for the lifetime of
// the coded video sequence it governs.
type SeqHeader struct {
	// seq_profile selects the sequence's bitstream profile (0, 1 or 2),
	// constraining chroma format and bit depth.
	Profile uint8

	// still_picture, if true this sequence contains exactly one coded frame.
	StillPicture bool

	// reduced_still_picture_header, if true this is a still picture whose
	// header omits most of the optional coded-sequence-level syntax.
	ReducedStillPictureHeader bool

	// OperatingPointIdc, one entry per operating point, encoding the set of
	// temporal/spatial layers that point depends on.
	OperatingPointIdc []uint16

	// frame_width_bits_minus1, frame_height_bits_minus1 give the bit widths
	// used to code max_frame_width_minus1 / max_frame_height_minus1.
	FrameWidthBitsMinus1  uint8
	FrameHeightBitsMinus1 uint8

	// MaxFrameWidth, MaxFrameHeight, the largest coded dimensions any frame
	// in this sequence may have.
	MaxFrameWidth  int
	MaxFrameHeight int

	// frame_id_numbers_present_flag, if true frames carry explicit
	// current_frame_id / ref_frame_id fields for out-of-band reference
	// management.
	FrameIDNumbersPresentFlag  bool
	DeltaFrameIDLengthMinus2   uint8
	AdditionalFrameIDLenMinus1 uint8

	// use_128x128_superblock, if true the largest coding block is 128x128,
	// otherwise 64x64.
	Use128x128Superblock bool

	// Feature flags, each gating a corresponding block-parser syntax element.
	EnableFilterIntra          bool
	EnableIntraEdgeFilter      bool
	EnableInterIntraCompound   bool
	EnableMaskedCompound       bool
	EnableWarpedMotion         bool
	EnableDualFilter           bool
	EnableOrderHint            bool
	EnableJntComp              bool
	EnableRefFrameMVs          bool
	SeqChooseScreenContentTools bool
	SeqForceScreenContentTools  uint8
	SeqChooseIntegerMV          bool
	SeqForceIntegerMV           uint8

	// OrderHintBits, the number of bits used to code order_hint, 0 if
	// EnableOrderHint is false.
	OrderHintBits uint8

	// enable_superres, enable_cdef, enable_restoration gate the
	// corresponding per-frame syntax and reconstruction stages.
	EnableSuperres    bool
	EnableCDEF        bool
	EnableRestoration bool

	// ColorConfig, the sequence's bit depth and chroma sampling.
	ColorConfig ColorConfig

	// film_grain_params_present, if true frame headers may carry film-grain
	// synthesis parameters (an external collaborator concern downstream of
	// this core; only the presence flag is tracked here).
	FilmGrainParamsPresent bool
}

// ColorConfig describes a sequence's bit depth and chroma subsampling, per
// section 3's sequence-header data model.
type ColorConfig struct {
	// HighBitdepth/TwelveBit together select 8, 10 or 12 bits per sample.
	HighBitdepth bool
	TwelveBit    bool

	// MonoChrome, if true this sequence carries no chroma planes.
	MonoChrome bool

	// Subsampling, the chroma subsampling format.
	Subsampling chromaSubsampling

	// SeparateUVDeltaQ, if true the U and V planes carry independent
	// delta-Q values in the frame header.
	SeparateUVDeltaQ bool
}

// BitDepth returns the number of bits per sample this color config encodes,
// derived from HighBitdepth and TwelveBit per the bitstream's color_config.
func (c ColorConfig) BitDepth() int {
	switch {
	case c.HighBitdepth && c.TwelveBit:
		return 12
	case c.HighBitdepth:
		return 10
	default:
		return 8
	}
}

// NewSeqHeader parses a Sequence Header OBU payload and returns it as a new
// SeqHeader.
func NewSeqHeader(payload []byte) (*SeqHeader, error) {
	s := &SeqHeader{}
	br := bits.NewBitReader(bytes.NewReader(payload))
	r := newFieldReader(br)

	s.Profile = uint8(r.readBits(3))
	s.StillPicture = r.readBit()
	s.ReducedStillPictureHeader = r.readBit()

	if s.ReducedStillPictureHeader {
		r.readBits(5) // seq_level_idx[0], unused beyond conformance checks.
		s.OperatingPointIdc = []uint16{0}
	} else {
		timingInfoPresent := r.readBit()
		decoderModelInfoPresent := false
		if timingInfoPresent {
			r.readBits(32) // num_units_in_display_tick.
			r.readBits(32) // time_scale.
			if r.readBit() { // equal_picture_interval.
				r.readVLC() // num_ticks_per_picture_minus_1.
			}
			decoderModelInfoPresent = r.readBit()
			if decoderModelInfoPresent {
				r.readBits(5)  // buffer_delay_length_minus_1.
				r.readBits(32) // num_units_in_decoding_tick.
				r.readBits(5)  // buffer_removal_time_length_minus_1.
				r.readBits(5)  // frame_presentation_time_length_minus_1.
			}
		}
		initialDisplayDelayPresent := r.readBit()
		operatingPointsCntMinus1 := int(r.readBits(5))
		for i := 0; i <= operatingPointsCntMinus1; i++ {
			idc := uint16(r.readBits(12))
			s.OperatingPointIdc = append(s.OperatingPointIdc, idc)
			seqLevelIdx := r.readBits(5)
			if seqLevelIdx > 7 {
				r.readBit() // seq_tier[i].
			}
			if decoderModelInfoPresent {
				if r.readBit() { // decoder_model_present_for_this_op.
					r.readBits(1 + 1) // placeholder for operating-parameters-info bits, sized by buffer_delay_length (external).
				}
			}
			if initialDisplayDelayPresent {
				if r.readBit() { // initial_display_delay_present_for_this_op.
					r.readBits(4)
				}
			}
		}
	}
	if len(s.OperatingPointIdc) == 0 {
		s.OperatingPointIdc = []uint16{0}
	}

	s.FrameWidthBitsMinus1 = uint8(r.readBits(4))
	s.FrameHeightBitsMinus1 = uint8(r.readBits(4))
	s.MaxFrameWidth = int(r.readBits(int(s.FrameWidthBitsMinus1)+1)) + 1
	s.MaxFrameHeight = int(r.readBits(int(s.FrameHeightBitsMinus1)+1)) + 1

	if !s.ReducedStillPictureHeader {
		s.FrameIDNumbersPresentFlag = r.readBit()
	}
	if s.FrameIDNumbersPresentFlag {
		s.DeltaFrameIDLengthMinus2 = uint8(r.readBits(4))
		s.AdditionalFrameIDLenMinus1 = uint8(r.readBits(3))
	}

	s.Use128x128Superblock = r.readBit()
	s.EnableFilterIntra = r.readBit()
	s.EnableIntraEdgeFilter = r.readBit()

	if !s.ReducedStillPictureHeader {
		s.EnableInterIntraCompound = r.readBit()
		s.EnableMaskedCompound = r.readBit()
		s.EnableWarpedMotion = r.readBit()
		s.EnableDualFilter = r.readBit()
		s.EnableOrderHint = r.readBit()
		if s.EnableOrderHint {
			s.EnableJntComp = r.readBit()
			s.EnableRefFrameMVs = r.readBit()
		}
		s.SeqChooseScreenContentTools = r.readBit()
		if s.SeqChooseScreenContentTools {
			s.SeqForceScreenContentTools = 2 // SELECT_SCREEN_CONTENT_TOOLS.
		} else {
			s.SeqForceScreenContentTools = uint8(r.readBits(1))
		}
		if s.SeqForceScreenContentTools > 0 {
			s.SeqChooseIntegerMV = r.readBit()
			if s.SeqChooseIntegerMV {
				s.SeqForceIntegerMV = 2 // SELECT_INTEGER_MV.
			} else {
				s.SeqForceIntegerMV = uint8(r.readBits(1))
			}
		} else {
			s.SeqForceIntegerMV = 2
		}
		if s.EnableOrderHint {
			orderHintBitsMinus1 := r.readBits(3)
			s.OrderHintBits = uint8(orderHintBitsMinus1) + 1
		}
	} else {
		s.SeqForceScreenContentTools = 2
		s.SeqForceIntegerMV = 2
	}

	s.EnableSuperres = r.readBit()
	s.EnableCDEF = r.readBit()
	s.EnableRestoration = r.readBit()

	cc, err := newColorConfig(r, s.Profile)
	if err != nil {
		return nil, err
	}
	s.ColorConfig = cc

	s.FilmGrainParamsPresent = r.readBit()

	if r.err() != nil {
		return nil, fmt.Errorf("error from fieldReader: %v", r.err())
	}
	return s, nil
}

// newColorConfig parses the color_config() syntax structure for a sequence
// of the given profile.
func newColorConfig(r *fieldReader, profile uint8) (ColorConfig, error) {
	var c ColorConfig

	highBitdepth := r.readBit()
	if profile == 2 && highBitdepth {
		c.TwelveBit = r.readBit()
		c.HighBitdepth = true
	} else {
		c.HighBitdepth = highBitdepth
	}

	if profile == 1 {
		c.MonoChrome = false
	} else {
		c.MonoChrome = r.readBit()
	}

	colorDescriptionPresent := r.readBit()
	var colorPrimaries, transferCharacteristics, matrixCoefficients uint8 = 2, 2, 2 // CP/TC/MC_UNSPECIFIED.
	if colorDescriptionPresent {
		colorPrimaries = uint8(r.readBits(8))
		transferCharacteristics = uint8(r.readBits(8))
		matrixCoefficients = uint8(r.readBits(8))
	}
	_ = colorPrimaries
	_ = transferCharacteristics

	if c.MonoChrome {
		r.readBit() // color_range.
		c.Subsampling = chromaMonochrome
		return c, r.err()
	}

	const srgbMatrix = 0
	if colorDescriptionPresent && colorPrimaries == 1 && transferCharacteristics == 13 && matrixCoefficients == srgbMatrix {
		c.Subsampling = chroma444
		return c, r.err()
	}

	r.readBit() // color_range.
	switch profile {
	case 0:
		c.Subsampling = chroma420
	case 1:
		c.Subsampling = chroma444
	default:
		if c.BitDepth() == 12 {
			subX := r.readBit()
			subY := false
			if subX {
				subY = r.readBit()
			}
			switch {
			case subX && subY:
				c.Subsampling = chroma420
			case subX:
				c.Subsampling = chroma422
			default:
				c.Subsampling = chroma444
			}
		} else {
			c.Subsampling = chroma422
		}
	}
	if c.Subsampling == chroma420 {
		r.readBits(2) // chroma_sample_position.
	}
	c.SeparateUVDeltaQ = r.readBit()
	return c, r.err()
}
