package terminal

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainReturnsAccumulatedBytes(t *testing.T) {
	ch := make(chan []byte, 2)
	ch <- []byte("AB")

	idle := 50 * time.Millisecond
	start := time.Now()
	out, closed := Drain(ch, idle)
	elapsed := time.Since(start)

	assert.Equal(t, "AB", out)
	assert.False(t, closed)
	// Must conclude one idle window after the last byte, give or take
	// scheduling slack.
	assert.Less(t, elapsed, idle+100*time.Millisecond)
}

func TestDrainResetsIdleTimerOnNewBytes(t *testing.T) {
	ch := make(chan []byte)
	idle := 80 * time.Millisecond

	go func() {
		ch <- []byte("slow")
		time.Sleep(50 * time.Millisecond) // within the idle window
		ch <- []byte(" talker")
	}()

	out, closed := Drain(ch, idle)
	assert.Equal(t, "slow talker", out)
	assert.False(t, closed)
}

func TestDrainEmptyChannelTimesOut(t *testing.T) {
	ch := make(chan []byte)
	idle := 60 * time.Millisecond

	start := time.Now()
	out, closed := Drain(ch, idle)
	elapsed := time.Since(start)

	assert.Equal(t, "", out)
	assert.False(t, closed)
	assert.GreaterOrEqual(t, elapsed, idle)
	assert.Less(t, elapsed, idle+100*time.Millisecond)
}

func TestDrainClosedChannelIsEndOfData(t *testing.T) {
	ch := make(chan []byte, 1)
	ch <- []byte("partial")
	close(ch)

	out, closed := Drain(ch, time.Second)
	assert.Equal(t, "partial", out)
	assert.True(t, closed)
}

func TestDrainDropsInvalidUTF8(t *testing.T) {
	ch := make(chan []byte, 1)
	ch <- []byte{'O', 'K', 0xff, 0xfe, '!'}
	close(ch)

	out, _ := Drain(ch, time.Second)
	assert.Equal(t, "OK!", out)
}

type scriptedReader struct {
	chunks [][]byte
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n == len(r.chunks[0]) {
		r.chunks = r.chunks[1:]
	} else {
		r.chunks[0] = r.chunks[0][n:]
	}
	return n, nil
}

func TestReadChunksClosesOnError(t *testing.T) {
	r := &scriptedReader{chunks: [][]byte{[]byte("hello "), []byte("world")}}
	ch := ReadChunks(r)

	out, closed := Drain(ch, time.Second)
	require.True(t, closed)
	assert.Equal(t, "hello world", out)
}
