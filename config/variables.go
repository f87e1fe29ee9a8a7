/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyInputPath    = "InputPath"
	KeyOutputPath   = "OutputPath"
	KeyMuxer        = "Muxer"
	KeyQuiet        = "Quiet"
	KeyLimit        = "Limit"
	KeySkip         = "Skip"
	KeyFrameThreads = "FrameThreads"
	KeyTileThreads  = "TileThreads"
	KeyLogging      = "logging"
	KeySuppress     = "Suppress"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeBool   = "bool"
)

// Default variable values.
const (
	defaultMuxer        = MuxerNone
	defaultVerbosity    = logging.Error
	defaultFrameThreads = 1
	defaultTileThreads  = 1
)

// Variables describes the variables that can be used for decoder control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
	},
	{
		Name: KeyMuxer,
		Type: "enum:none,ivf,y4m",
		Update: func(c *Config, v string) {
			c.Muxer = v
		},
		Validate: func(c *Config) {
			switch c.Muxer {
			case MuxerNone, MuxerIVF, MuxerY4M:
			default:
				c.LogInvalidField(KeyMuxer, defaultMuxer)
				c.Muxer = defaultMuxer
			}
		},
	},
	{
		Name:   KeyQuiet,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Quiet = parseBool(KeyQuiet, v, c) },
	},
	{
		Name:   KeyLimit,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Limit = parseUint(KeyLimit, v, c) },
	},
	{
		Name:   KeySkip,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Skip = parseUint(KeySkip, v, c) },
	},
	{
		Name:   KeyFrameThreads,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FrameThreads = parseUint(KeyFrameThreads, v, c) },
		Validate: func(c *Config) {
			if c.FrameThreads == 0 {
				c.LogInvalidField(KeyFrameThreads, defaultFrameThreads)
				c.FrameThreads = defaultFrameThreads
			}
		},
	},
	{
		Name:   KeyTileThreads,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.TileThreads = parseUint(KeyTileThreads, v, c) },
		Validate: func(c *Config) {
			if c.TileThreads == 0 {
				c.LogInvalidField(KeyTileThreads, defaultTileThreads)
				c.TileThreads = defaultTileThreads
			}
		},
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name: KeySuppress,
		Type: typeBool,
		Update: func(c *Config, v string) {
			c.Suppress = parseBool(KeySuppress, v, c)
			if jl, ok := c.Logger.(*logging.JSONLogger); ok {
				jl.SetSuppress(c.Suppress)
			}
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}
