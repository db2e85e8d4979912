package terminal

import (
	"bytes"
	"io"
	"strings"
	"time"
)

const readBufferSize = 4096

// ReadChunks pumps r into a channel of byte chunks. The channel is closed on
// EOF or any read error; a drain in progress treats that as end-of-data.
// Each chunk is an independent copy, safe to retain.
func ReadChunks(r io.Reader) <-chan []byte {
	ch := make(chan []byte)
	go func() {
		defer close(ch)
		buf := make([]byte, readBufferSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				ch <- chunk
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// Drain accumulates chunks until no new bytes arrive for idle, then returns
// the collected text. The idle timer restarts on every chunk, so a slow but
// steady talker is read to completion. There is no framing here: the only
// signal that a command finished is silence.
//
// closed reports that the channel was closed (remote side hung up) before the
// quiet period elapsed. Bytes that do not form valid UTF-8 are dropped rather
// than surfaced as an error.
func Drain(ch <-chan []byte, idle time.Duration) (text string, closed bool) {
	var buf bytes.Buffer

	timer := time.NewTimer(idle)
	defer timer.Stop()

	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return decode(&buf), true
			}
			buf.Write(chunk)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(idle)
		case <-timer.C:
			return decode(&buf), false
		}
	}
}

func decode(buf *bytes.Buffer) string {
	return strings.ToValidUTF8(buf.String(), "")
}
