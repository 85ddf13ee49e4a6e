package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Start failure taxonomy. Each maps to distinct user messaging; none is
// retried automatically.
var (
	ErrPermissionDenied  = errors.New("capture: permission denied")
	ErrDeviceUnavailable = errors.New("capture: no capture device available")
	ErrUnsupported       = errors.New("capture: live capture not supported on this host")
)

// Device provides the raw audio stream for a live session. The returned
// stream is exclusively owned by the capture pipeline until closed.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Format describes the raw PCM stream a device produces.
type Format struct {
	SampleRate     int
	BytesPerSample int
	Channels       int
}

// DefaultFormat matches the analyzer's expected input: 16 kHz mono PCM16.
func DefaultFormat() Format {
	return Format{SampleRate: 16000, BytesPerSample: 2, Channels: 1}
}

func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerSample * f.Channels
}

// StreamDevice reads captured audio from a path, typically a FIFO fed by
// the host's recording tool. An empty path means the platform has no
// capture support configured.
type StreamDevice struct {
	Path string
}

func (d *StreamDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	if d.Path == "" {
		return nil, ErrUnsupported
	}
	f, err := os.Open(d.Path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, d.Path)
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, d.Path)
		default:
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
	}
	return f, nil
}
