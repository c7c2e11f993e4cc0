package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// StillCamera serves a single frame decoded from an image file. The CLI uses
// it to stand in for a device camera.
type StillCamera struct {
	Path string
}

// Open decodes the file, honouring EXIF orientation.
func (c StillCamera) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(c.Path)
	if path == "" {
		return nil, errors.New("capture: still frame path is required")
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("capture: open still frame: %w", err)
	}
	return NewImageStream(img), nil
}

// ImageStream is a Stream backed by a fixed image with one video track.
type ImageStream struct {
	img   image.Image
	track *videoTrack
}

// NewImageStream wraps img.
func NewImageStream(img image.Image) *ImageStream {
	return &ImageStream{img: img, track: &videoTrack{}}
}

func (s *ImageStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.track.Stopped() {
		return nil, ErrReleased
	}
	return s.img, nil
}

func (s *ImageStream) Tracks() []Track { return []Track{s.track} }

// Stopped reports whether the video track was stopped.
func (s *ImageStream) Stopped() bool { return s.track.Stopped() }

type videoTrack struct {
	mu      sync.Mutex
	stopped bool
}

func (t *videoTrack) Kind() string { return "video" }

func (t *videoTrack) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *videoTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
