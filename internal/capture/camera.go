package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

const (
	// JPEGQuality is used when encoding captured frames.
	JPEGQuality = 80
	// DefaultMaxDimension bounds the longest side of a captured frame.
	DefaultMaxDimension = 1920
)

// ErrReleased is returned when a session is used after its stream was
// released.
var ErrReleased = errors.New("capture: camera released")

// Track is one media track of an open camera stream.
type Track interface {
	Kind() string
	Stop()
}

// Stream is an exclusively held camera stream.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Tracks() []Track
}

// Camera opens streams from a capture device.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// SessionOptions tunes frame encoding.
type SessionOptions struct {
	MaxDimension int
	Quality      int
	Now          func() time.Time
}

// Session owns an open stream until a frame is captured, the user cancels
// or the session is closed. Every exit path stops all tracks exactly once.
type Session struct {
	opts SessionOptions

	mu       sync.Mutex
	stream   Stream
	released bool
}

// Start opens cam and returns a session holding its stream.
func Start(ctx context.Context, cam Camera, opts SessionOptions) (*Session, error) {
	if cam == nil {
		return nil, errors.New("capture: camera is required")
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = JPEGQuality
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	stream, err := cam.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: open camera: %w", err)
	}
	return &Session{opts: opts, stream: stream}, nil
}

// Active reports whether the session still holds its stream.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.released
}

// Capture grabs a frame, encodes it as JPEG and releases the stream. A failed
// grab keeps the stream so the caller may retry or Cancel.
func (s *Session) Capture(ctx context.Context) (*domain.ImageFile, error) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil, ErrReleased
	}
	stream := s.stream
	s.mu.Unlock()

	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: grab frame: %w", err)
	}
	if frame == nil {
		return nil, errors.New("capture: camera returned no frame")
	}
	b := frame.Bounds()
	if b.Dx() > s.opts.MaxDimension || b.Dy() > s.opts.MaxDimension {
		frame = imaging.Fit(frame, s.opts.MaxDimension, s.opts.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(s.opts.Quality)); err != nil {
		return nil, fmt.Errorf("capture: encode frame: %w", err)
	}
	s.release()

	return &domain.ImageFile{
		Name: fmt.Sprintf("camera-%d.jpg", s.opts.Now().UnixMilli()),
		MIME: "image/jpeg",
		Data: buf.Bytes(),
	}, nil
}

// Cancel releases the stream without capturing.
func (s *Session) Cancel() { s.release() }

// Close releases the stream. It is safe to call after Capture or Cancel.
func (s *Session) Close() error {
	s.release()
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	for _, t := range s.stream.Tracks() {
		t.Stop()
	}
	s.stream = nil
}
