/*
DESCRIPTION
  av1dec is a standalone command-line AV1 bitstream parser: it reads a
  low-overhead-format OBU stream and drives the block-parsing core over
  every coded frame. The -output and -muxer flags are recorded in the
  configuration, but no muxer is invoked and no decoded frames are
  written out.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements the av1dec command-line decoder.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/av1dec/codec/av1/av1dec"
	"github.com/ausocean/av1dec/codec/av1/obu"
	"github.com/ausocean/av1dec/config"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logPath      = "/var/log/av1dec/av1dec.log"
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
)

const pkg = "av1dec: "

func main() {
	cfg := &config.Config{}

	flag.StringVar(&cfg.InputPath, "input", "-", "input OBU bitstream path, - for stdin")
	flag.StringVar(&cfg.InputPath, "i", "-", "shorthand for -input")
	flag.StringVar(&cfg.OutputPath, "output", "-", "output path, - for stdout")
	flag.StringVar(&cfg.OutputPath, "o", "-", "shorthand for -output")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "suppress all but warning/error logging")
	flag.BoolVar(&cfg.Quiet, "q", false, "shorthand for -quiet")
	var limit, skip uint
	flag.UintVar(&limit, "limit", 0, "stop after this many frames, 0 for unlimited")
	flag.UintVar(&limit, "l", 0, "shorthand for -limit")
	flag.UintVar(&skip, "skip", 0, "discard this many leading frames before output")
	flag.UintVar(&skip, "s", 0, "shorthand for -skip")
	flag.StringVar(&cfg.Muxer, "muxer", config.MuxerNone, "output muxer: none, ivf or y4m")
	flag.UintVar(&cfg.FrameThreads, "framethreads", 1, "frame-pool worker count")
	flag.UintVar(&cfg.TileThreads, "tilethreads", 1, "tile-pool worker count shared across frames")
	watch := flag.Bool("watch", false, "treat -input as a directory and decode every new bitstream file written to it")
	showVersion := flag.Bool("version", false, "show version")
	flag.BoolVar(showVersion, "v", false, "shorthand for -version")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg.Limit = limit
	cfg.Skip = skip

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	verbosity := logging.Info
	if cfg.Quiet {
		verbosity = logging.Warning
	}
	log := logging.New(verbosity, io.MultiWriter(fileLog, os.Stderr), false)
	cfg.Logger = log
	cfg.LogLevel = int8(verbosity)
	cfg.Validate()

	log.Info("starting av1dec", "version", version)

	if *watch {
		if err := watchDir(cfg, log); err != nil {
			log.Error("watch mode failed", "error", err.Error())
			os.Exit(1)
		}
		return
	}

	if err := decodeOnePath(cfg, log, cfg.InputPath); err != nil {
		log.Error("decode failed", "error", err.Error())
		os.Exit(1)
	}
}

// watchDir runs av1dec.av1dec's long-running mode: decode every regular
// file created under cfg.InputPath until the process is interrupted.
func watchDir(cfg *config.Config, log logging.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf(pkg+"could not create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(cfg.InputPath); err != nil {
		return fmt.Errorf(pkg+"could not watch %s: %w", cfg.InputPath, err)
	}
	log.Info("watching directory for bitstreams", "path", cfg.InputPath)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil || info.IsDir() {
				continue
			}
			log.Info("decoding new bitstream", "path", ev.Name)
			if err := decodeOnePath(cfg, log, ev.Name); err != nil {
				log.Error("decode failed", "path", ev.Name, "error", err.Error())
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "error", err.Error())
		}
	}
}

// decodeOnePath decodes the OBU bitstream at path (or stdin, for "-")
// against cfg and logs a summary on completion.
func decodeOnePath(cfg *config.Config, log logging.Logger, path string) error {
	src, err := openInput(path)
	if err != nil {
		return fmt.Errorf(pkg+"could not open input: %w", err)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	dec := av1dec.NewDecoder(
		int(cfg.FrameThreads),
		int(cfg.TileThreads),
		av1dec.NewSimpleAllocator(),
		av1dec.NewBitDepthKernels(av1dec.NoopReconstructor(), av1dec.NoopReconstructor()),
		log,
	)

	w := &unitWriter{dec: dec, limit: cfg.Limit, skip: cfg.Skip}
	err = obu.Lex(w, src, 0)
	dec.Flush()
	if err != nil && err != io.EOF {
		return fmt.Errorf(pkg+"lex: %w", err)
	}
	if w.err != nil {
		return w.err
	}

	log.Info("decode complete", "path", path, "frames", w.seen-w.skip)
	return nil
}

func openInput(path string) (io.Reader, error) {
	if path == "-" || path == "" {
		return os.Stdin, nil
	}
	return os.Open(filepath.Clean(path))
}

// unitWriter adapts obu.Lex's one-access-unit-per-Write contract to the
// decoder's SubmitUnit, applying --skip/--limit at access-unit
// granularity (the CLI's coarse approximation of frame counting, the same
// level of detail the muxer collaborator sees).
type unitWriter struct {
	dec   *av1dec.Decoder
	limit uint
	skip  uint
	seen  uint
	err   error
}

func (w *unitWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.seen++
	if w.seen <= w.skip {
		return len(p), nil
	}
	if w.limit != 0 && w.seen-w.skip > w.limit {
		w.err = io.EOF
		return 0, w.err
	}

	cp := make([]byte, len(p))
	copy(cp, p)
	if err := w.dec.SubmitUnit(cp); err != nil {
		w.err = err
		return 0, err
	}
	return len(p), nil
}
