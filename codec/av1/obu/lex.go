/*
NAME
  lex.go

DESCRIPTION
  lex.go provides a lexer to lex a low-overhead-format AV1 OBU bytestream
  into access units.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package obu

import (
	"io"
	"time"

	"github.com/ausocean/av1dec/codec/codecutil"
)

var noDelay = make(chan time.Time)

func init() {
	close(noDelay)
}

// Lex lexes a low-overhead-format OBU bytestream read from src into
// separate writes to dst, with successive writes performed not earlier
// than the specified delay. A new write starts at every temporal delimiter
// OBU, so each write to dst carries one access unit: the delimiter itself
// followed by every OBU up to, but not including, the next delimiter.
func Lex(dst io.Writer, src io.Reader, delay time.Duration) error {
	var tick <-chan time.Time
	if delay == 0 {
		tick = noDelay
	} else {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	const bufSize = 8 << 10

	c := codecutil.NewByteScanner(src, make([]byte, 4<<10))

	au := make([]byte, 0, bufSize)
	for {
		raw, typ, err := readOBU(c)
		if err != nil {
			if err != io.EOF {
				return err
			}
			if len(au) != 0 {
				<-tick
				if _, err := dst.Write(au); err != nil {
					return err
				}
			}
			return io.EOF
		}

		if typ == obuTemporalDelimiter && len(au) != 0 {
			<-tick
			if _, err := dst.Write(au); err != nil {
				return err
			}
			au = make([]byte, 0, bufSize)
		}
		au = append(au, raw...)
	}
}
