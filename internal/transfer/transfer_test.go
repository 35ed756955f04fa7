package transfer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Deployer/internal/progress"
)

// chunkRecorder запоминает размер каждой записи.
type chunkRecorder struct {
	bytes.Buffer
	sizes []int
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.sizes = append(c.sizes, len(p))
	return c.Buffer.Write(p)
}

func TestWrite_Chunking(t *testing.T) {
	sizes := []int{1, ChunkSize - 1, ChunkSize, ChunkSize + 1, 3*ChunkSize + 17, 100_000}

	for _, size := range sizes {
		data := bytes.Repeat([]byte{'x'}, size)
		w := &chunkRecorder{}
		sink := &progress.Recorder{}

		err := Write(context.Background(), w, data, sink)
		require.NoError(t, err)

		assert.Equal(t, data, w.Bytes())
		assert.Len(t, w.sizes, Chunks(size))
		for _, n := range w.sizes {
			assert.LessOrEqual(t, n, ChunkSize)
		}

		events := sink.Events()
		require.Len(t, events, Chunks(size), "one report per chunk")

		var prev, sum int64
		for i, ev := range events {
			assert.Equal(t, int64(size), ev.TotalSize)
			assert.Equal(t, progress.Percent(ev.TotalSize, ev.ProcessedSize), ev.ProgressPercent)
			assert.Greater(t, ev.ProcessedSize, prev, "event %d must advance", i)
			sum += ev.ProcessedSize - prev
			prev = ev.ProcessedSize
		}
		assert.Equal(t, int64(size), sum)

		last := events[len(events)-1]
		assert.Equal(t, int64(size), last.ProcessedSize)
		assert.Equal(t, float64(100), last.ProgressPercent)
	}
}

func TestWrite_FirstChunkReported(t *testing.T) {
	sink := &progress.Recorder{}
	err := Write(context.Background(), &bytes.Buffer{}, make([]byte, 2*ChunkSize), sink)
	require.NoError(t, err)

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(ChunkSize), events[0].ProcessedSize)
	assert.Equal(t, float64(50), events[0].ProgressPercent)
}

func TestWrite_Empty(t *testing.T) {
	w := &chunkRecorder{}
	sink := &progress.Recorder{}

	require.NoError(t, Write(context.Background(), w, nil, sink))
	assert.Empty(t, w.sizes)
	assert.Empty(t, sink.Events())
}

type failingWriter struct {
	failAfter int
	calls     int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	if f.calls > f.failAfter {
		return 0, errors.New("connection reset")
	}
	return len(p), nil
}

func TestWrite_WriterError(t *testing.T) {
	sink := &progress.Recorder{}
	w := &failingWriter{failAfter: 1}

	err := Write(context.Background(), w, make([]byte, 3*ChunkSize), sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Len(t, sink.Events(), 1)
}

func TestWrite_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Write(ctx, &bytes.Buffer{}, make([]byte, 10), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, 0, Chunks(0))
	assert.Equal(t, 1, Chunks(1))
	assert.Equal(t, 1, Chunks(ChunkSize))
	assert.Equal(t, 2, Chunks(ChunkSize+1))
}
