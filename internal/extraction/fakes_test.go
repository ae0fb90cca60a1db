package extraction

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

// fakeSource serves a fixed slice of frames as a video.
type fakeSource struct {
	frames []image.Image
	fps    float64
	failAt map[int]bool
	closed bool
}

func newFakeSource(fps float64, frames ...image.Image) *fakeSource {
	return &fakeSource{frames: frames, fps: fps}
}

func (s *fakeSource) Frame(_ context.Context, index int) (image.Image, error) {
	if s.failAt[index] {
		return nil, errors.New("simulated decode failure")
	}
	if index < 0 || index >= len(s.frames) {
		return nil, fmt.Errorf("frame %d out of range", index)
	}
	return s.frames[index], nil
}

func (s *fakeSource) FrameCount() int { return len(s.frames) }

func (s *fakeSource) FPS() float64 { return s.fps }

func (s *fakeSource) Duration() float64 {
	if s.fps <= 0 {
		return 0
	}
	return float64(len(s.frames)) / s.fps
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// repeat appends n copies of img to frames.
func repeat(frames []image.Image, img image.Image, n int) []image.Image {
	for i := 0; i < n; i++ {
		frames = append(frames, img)
	}
	return frames
}

type fakeDetector struct {
	regions []entity.Region
	err     error
	calls   int
}

func (d *fakeDetector) DetectExclusionRegions(context.Context, image.Image) ([]entity.Region, error) {
	d.calls++
	return d.regions, d.err
}

type fakeOCR struct {
	fn    func(img image.Image) (string, error)
	calls int
}

func (o *fakeOCR) ExtractText(_ context.Context, img image.Image) (string, error) {
	o.calls++
	return o.fn(img)
}

func staticOCR(text string) *fakeOCR {
	return &fakeOCR{fn: func(image.Image) (string, error) { return text, nil }}
}
