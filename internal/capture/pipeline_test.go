package capture

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice streams an endless tone and records whether its stream was
// released.
type fakeDevice struct {
	mu     sync.Mutex
	closed bool
	reader *io.PipeReader
	writer *io.PipeWriter
}

func newFakeDevice() *fakeDevice {
	r, w := io.Pipe()
	return &fakeDevice{reader: r, writer: w}
}

func (d *fakeDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	go func() {
		buf := make([]byte, 320)
		for {
			if _, err := d.writer.Write(buf); err != nil {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()
	return &closeTracking{ReadCloser: d.reader, device: d}, nil
}

func (d *fakeDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type closeTracking struct {
	io.ReadCloser
	device *fakeDevice
}

func (c *closeTracking) Close() error {
	c.device.mu.Lock()
	c.device.closed = true
	c.device.mu.Unlock()
	c.device.writer.Close()
	return c.ReadCloser.Close()
}

func TestPipelineProducesChunks(t *testing.T) {
	chunks := make(chan Chunk, 16)
	dev := newFakeDevice()
	p := NewPipeline(dev, DefaultFormat(), 30*time.Millisecond, func(c Chunk) {
		chunks <- c
	})

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRecording())

	select {
	case c := <-chunks:
		assert.NotEmpty(t, c.Data)
		assert.Equal(t, 0, c.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("no chunk produced")
	}

	p.Stop()
	assert.False(t, p.IsRecording())
	assert.True(t, dev.isClosed(), "device must be released on stop")

	// drain anything finalized before stop, then confirm silence
	deadline := time.After(100 * time.Millisecond)
drain:
	for {
		select {
		case <-chunks:
		case <-deadline:
			break drain
		}
	}
	select {
	case c := <-chunks:
		t.Fatalf("chunk %d produced after stop", c.Seq)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPipelineDiscardsPartialChunkOnStop(t *testing.T) {
	chunks := make(chan Chunk, 16)
	dev := newFakeDevice()
	p := NewPipeline(dev, DefaultFormat(), time.Minute, func(c Chunk) {
		chunks <- c
	})

	require.NoError(t, p.Start(context.Background()))
	time.Sleep(50 * time.Millisecond) // let some audio accumulate
	p.Stop()

	select {
	case <-chunks:
		t.Fatal("partial chunk must be discarded, not processed")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPipelineStartIsIdempotent(t *testing.T) {
	dev := newFakeDevice()
	p := NewPipeline(dev, DefaultFormat(), time.Minute, func(Chunk) {})

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()))
	p.Stop()
}

func TestPipelineStopIsIdempotent(t *testing.T) {
	dev := newFakeDevice()
	p := NewPipeline(dev, DefaultFormat(), time.Minute, func(Chunk) {})

	p.Stop() // never started
	require.NoError(t, p.Start(context.Background()))
	p.Stop()
	p.Stop()
	assert.False(t, p.IsRecording())
}

func TestPipelineSnapshot(t *testing.T) {
	dev := newFakeDevice()
	p := NewPipeline(dev, DefaultFormat(), 5*time.Second, func(Chunk) {})

	s := p.Snapshot()
	assert.False(t, s.IsRecording)
	assert.Equal(t, int64(5000), s.ChunkDurationMs)
	assert.Equal(t, int64(0), s.PendingChunks)
}

func TestStreamDeviceFailureTaxonomy(t *testing.T) {
	_, err := (&StreamDevice{}).Open(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = (&StreamDevice{Path: filepath.Join(t.TempDir(), "missing")}).Open(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestDefaultFormat(t *testing.T) {
	f := DefaultFormat()
	assert.Equal(t, 32000, f.BytesPerSecond())
}
