/*
NAME
  list.go

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package codecutil

// All OBU type names this package recognises. No other package in this
// module references them. When adding or removing an OBU type, the IsValid
// function below must be updated.
const (
	SequenceHeader       = "sequence_header"
	TemporalDelimiter    = "temporal_delimiter"
	FrameHeader          = "frame_header"
	TileGroup            = "tile_group"
	Metadata             = "metadata"
	Frame                = "frame"
	RedundantFrameHeader = "redundant_frame_header"
	TileList             = "tile_list"
	Padding              = "padding"
)

// IsValid checks if a string is a known and valid OBU type name.
func IsValid(s string) bool {
	switch s {
	case SequenceHeader, TemporalDelimiter, FrameHeader, TileGroup, Metadata, Frame, RedundantFrameHeader, TileList, Padding:
		return true
	default:
		return false
	}
}
