/*
DESCRIPTION
  obuheader.go provides the structure for an Open Bitstream Unit header and
  its optional temporal/spatial extension, as defined in the OBU framing
  layer that wraps every sequence header, frame header, tile group and
  metadata payload this decoder consumes.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
  mrmod <mcmoranbjr@gmail.com>
*/

package av1dec

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/av1dec/codec/av1/av1dec/bits"
)

// obuType enumerates the obu_type field values.
type obuType uint8

// OBU type constants, per the bitstream's obu_type enumeration.
const (
	obuSequenceHeader       obuType = 1
	obuTemporalDelimiter    obuType = 2
	obuFrameHeader          obuType = 3
	obuTileGroup            obuType = 4
	obuMetadata             obuType = 5
	obuFrame                obuType = 6
	obuRedundantFrameHeader obuType = 7
	obuTileList             obuType = 8
	obuPadding              obuType = 15
)

// OBUExtension describes an OBU header's optional temporal/spatial scalability
// extension, present when obu_extension_flag is set.
type OBUExtension struct {
	// temporal_id, the temporal layer identifier for this OBU.
	TemporalID uint8

	// spatial_id, the spatial layer identifier for this OBU.
	SpatialID uint8

	// extension_header_reserved_3bits, always 0 and ignored by decoders.
	Reserved3Bits uint8
}

// NewOBUExtension parses an obu_extension_header() from br and returns it as
// a new OBUExtension.
func NewOBUExtension(br *bits.BitReader) (*OBUExtension, error) {
	e := &OBUExtension{}
	r := newFieldReader(br)

	e.TemporalID = uint8(r.readBits(3))
	e.SpatialID = uint8(r.readBits(2))
	e.Reserved3Bits = uint8(r.readBits(3))

	if r.err() != nil {
		return nil, fmt.Errorf("error from fieldReader: %v", r.err())
	}
	return e, nil
}

// OBUHeader describes an Open Bitstream Unit header, the framing structure
// that precedes every OBU's payload.
type OBUHeader struct {
	// obu_forbidden_bit, always 0.
	ForbiddenBit uint8

	// obu_type, identifies the kind of payload that follows.
	Type obuType

	// obu_extension_flag, indicates whether an obu_extension_header() follows.
	ExtensionFlag bool

	// obu_has_size_field, if true a leb128-coded obu_size follows the header,
	// giving the payload length in bytes; if false the payload runs to the
	// end of the containing temporal unit (only valid for Annex-B framing).
	HasSizeField bool

	// obu_reserved_1bit, always 0 and ignored by decoders.
	Reserved1Bit uint8

	// Extension, the optional temporal/spatial scalability extension, non-nil
	// iff ExtensionFlag is set.
	Extension *OBUExtension

	// obu_size, the leb128-coded payload length in bytes, present iff
	// HasSizeField is set.
	Size uint64

	// Payload, the raw bytes of this OBU's payload, i.e. everything after the
	// header and the optional size field.
	Payload []byte
}

// NewOBUHeader parses an obu_header() (plus its payload, once Size or the
// caller-supplied length is known) from br and returns it as a new
// OBUHeader. payloadLen gives the payload length in bytes when the OBU has
// no size field (Annex-B low-overhead framing, where the containing loop
// supplies the length out of band); it is ignored when HasSizeField is set.
func NewOBUHeader(br *bits.BitReader, payloadLen int) (*OBUHeader, error) {
	h := &OBUHeader{}
	r := newFieldReader(br)

	h.ForbiddenBit = uint8(r.readBits(1))
	h.Type = obuType(r.readBits(4))
	h.ExtensionFlag = r.readBit()
	h.HasSizeField = r.readBit()
	h.Reserved1Bit = uint8(r.readBits(1))

	if r.err() != nil {
		return nil, fmt.Errorf("error from fieldReader: %v", r.err())
	}

	if h.ExtensionFlag {
		ext, err := NewOBUExtension(br)
		if err != nil {
			return nil, errors.Wrap(err, "could not parse OBUExtension")
		}
		h.Extension = ext
	}

	n := payloadLen
	if h.HasSizeField {
		h.Size = r.readLEB128()
		if r.err() != nil {
			return nil, fmt.Errorf("error reading obu_size: %v", r.err())
		}
		n = int(h.Size)
	}

	if n < 0 {
		return nil, errNegativePayloadLen
	}
	payload := make([]byte, n)
	for i := 0; i < n; i++ {
		payload[i] = byte(r.readBits(8))
	}
	if r.err() != nil {
		return nil, fmt.Errorf("error reading OBU payload: %v", r.err())
	}
	h.Payload = payload

	return h, nil
}

var errNegativePayloadLen = errors.New("obu: negative payload length")

// String returns a short human-readable description of the OBU type, useful
// for logging.
func (t obuType) String() string {
	switch t {
	case obuSequenceHeader:
		return "SEQUENCE_HEADER"
	case obuTemporalDelimiter:
		return "TEMPORAL_DELIMITER"
	case obuFrameHeader:
		return "FRAME_HEADER"
	case obuTileGroup:
		return "TILE_GROUP"
	case obuMetadata:
		return "METADATA"
	case obuFrame:
		return "FRAME"
	case obuRedundantFrameHeader:
		return "REDUNDANT_FRAME_HEADER"
	case obuTileList:
		return "TILE_LIST"
	case obuPadding:
		return "PADDING"
	default:
		return fmt.Sprintf("RESERVED(%d)", uint8(t))
	}
}
