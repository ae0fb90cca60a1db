package port

import (
	"context"
	"image"
)

// FrameSource supplies decoded frames of a single video by index. Decoding
// frames is the dominant wall-clock cost of extraction; implementations may
// open one decoder handle per request so calls are independent.
type FrameSource interface {
	Frame(ctx context.Context, index int) (image.Image, error)
	FrameCount() int
	FPS() float64
	Duration() float64
	Close() error
}

// VideoOpener probes a local video file and returns a FrameSource for it.
type VideoOpener interface {
	Open(ctx context.Context, videoPath string) (FrameSource, error)
}
