package capture

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"scamshield/internal/logger"
)

// DefaultChunkDuration is how much audio goes into one analyzer chunk.
const DefaultChunkDuration = 5 * time.Second

// Chunk is one finalized slice of captured audio.
type Chunk struct {
	Seq  int
	Data []byte
}

// ProcessFunc handles a finalized chunk. It is called on its own goroutine
// and must not block the capture loop.
type ProcessFunc func(chunk Chunk)

// State is a snapshot of the pipeline for status reporting.
type State struct {
	IsRecording     bool  `json:"is_recording"`
	ChunkDurationMs int64 `json:"chunk_duration_ms"`
	PendingChunks   int64 `json:"pending_chunks"`
}

// Pipeline slices a continuous capture stream into fixed-duration chunks
// and hands each one to an asynchronous processor. Capture never waits for
// a chunk's processing to finish.
type Pipeline struct {
	device        Device
	format        Format
	chunkDuration time.Duration
	process       ProcessFunc
	log           *logrus.Entry

	mu        sync.Mutex
	recording bool
	stream    io.ReadCloser
	cancel    context.CancelFunc
	loopDone  chan struct{}

	pending atomic.Int64
}

func NewPipeline(device Device, format Format, chunkDuration time.Duration, process ProcessFunc) *Pipeline {
	if chunkDuration <= 0 {
		chunkDuration = DefaultChunkDuration
	}
	return &Pipeline{
		device:        device,
		format:        format,
		chunkDuration: chunkDuration,
		process:       process,
		log:           logger.Component("capture"),
	}
}

// Start opens the device and begins the chunking loop. Returns one of the
// typed device errors on failure; the pipeline stays stopped. Starting an
// already recording pipeline is a no-op.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recording {
		return nil
	}

	stream, err := p.device.Open(ctx)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.stream = stream
	p.cancel = cancel
	p.recording = true
	p.loopDone = make(chan struct{})

	go p.run(loopCtx, stream, p.loopDone)

	p.log.WithField("chunk_ms", p.chunkDuration.Milliseconds()).Info("capture started")
	return nil
}

// Stop tears the pipeline down synchronously: the slicing loop is
// canceled, the partial chunk is discarded and the device is released
// before Stop returns. In-flight chunk processors are left to finish; the
// caller ignores their results via its generation guard. Idempotent.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.recording {
		p.mu.Unlock()
		return
	}
	p.recording = false
	cancel := p.cancel
	stream := p.stream
	done := p.loopDone
	p.cancel = nil
	p.stream = nil
	p.mu.Unlock()

	cancel()
	// Closing the stream unblocks any pending read and releases the device.
	if err := stream.Close(); err != nil {
		p.log.WithError(err).Warn("closing capture stream")
	}
	<-done
	p.log.Info("capture stopped")
}

// IsRecording reports whether the capture loop is active.
func (p *Pipeline) IsRecording() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recording
}

// Snapshot returns the pipeline state for status reporting.
func (p *Pipeline) Snapshot() State {
	return State{
		IsRecording:     p.IsRecording(),
		ChunkDurationMs: p.chunkDuration.Milliseconds(),
		PendingChunks:   p.pending.Load(),
	}
}

// run owns the read/slice loop. Reads happen on a helper goroutine so the
// slicer can observe cancellation while a read is blocked.
func (p *Pipeline) run(ctx context.Context, stream io.Reader, done chan<- struct{}) {
	defer close(done)

	reads := make(chan []byte, 8)
	readErr := make(chan error, 1)
	go func() {
		defer close(reads)
		buf := make([]byte, p.format.BytesPerSecond()/10)
		for {
			n, err := stream.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case reads <- data:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(p.chunkDuration)
	defer ticker.Stop()

	var current []byte
	seq := 0
	finalize := func() {
		if len(current) == 0 {
			return
		}
		chunk := Chunk{Seq: seq, Data: current}
		seq++
		current = nil
		p.pending.Add(1)
		go func() {
			defer p.pending.Add(-1)
			p.process(chunk)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			// Partial chunk is discarded, not processed.
			return
		case data, ok := <-reads:
			if !ok {
				continue
			}
			current = append(current, data...)
		case err := <-readErr:
			if ctx.Err() == nil && err != io.EOF {
				p.log.WithError(err).Error("capture device failed, stopping")
			}
			// Flush what we have on stream end, then stop producing.
			finalize()
			go p.Stop()
			return
		case <-ticker.C:
			finalize()
		}
	}
}
