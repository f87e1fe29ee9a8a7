/*
NAME
  Config.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package config contains the configuration settings for the av1dec decoder.
package config

import (
	"github.com/ausocean/utils/logging"
)

// Muxer names recognised by --muxer. The muxer itself lives outside this
// core (§6's external collaborator boundary); this config only records
// which one the CLI was told to hand decoded frames to.
const (
	MuxerNone = "none"
	MuxerIVF  = "ivf"
	MuxerY4M  = "y4m"
)

// Config provides the parameters relevant to a decoder run. A new config must
// be passed to the constructor. Default values for these fields are defined
// in variables.go.
type Config struct {
	// InputPath is the location of the OBU bitstream to decode. "-" means
	// read from stdin.
	InputPath string

	// OutputPath is the destination for muxed decoder output. "-" means
	// write to stdout.
	OutputPath string

	// Muxer names the output container the decoded frames are handed to.
	// Valid values are MuxerNone, MuxerIVF, MuxerY4M.
	Muxer string

	// Quiet suppresses all but warning/error logging.
	Quiet bool

	// Limit caps the number of frames decoded; 0 means unlimited.
	Limit uint

	// Skip is the number of leading frames to decode and discard before
	// the first frame is handed to the muxer.
	Skip uint

	// FrameThreads is the size of the frame-level worker pool (§5):
	// how many frames may be in flight, each driving its own tile pool.
	FrameThreads uint

	// TileThreads is the size of each frame's tile-row worker pool (§5).
	TileThreads uint

	// Logger holds an implementation of the Logger interface.
	// This must be set for the decoder to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	Suppress bool // Holds logger suppression state.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
