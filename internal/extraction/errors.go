package extraction

import (
	"errors"
	"fmt"
)

// ErrEmptyVideo aborts extraction entirely: the frame source reported zero
// total frames or zero fps. Every other failure in this package degrades.
var ErrEmptyVideo = errors.New("frame source reports zero frames or zero fps")

var errEmptySlideImage = errors.New("slide has no backing image")

// ErrOutOfOrder is returned when a candidate frame is fed to the classifier
// out of ascending index order. The classifier is a stateful sliding
// comparison; feeding it unordered candidates is a caller bug.
var ErrOutOfOrder = errors.New("candidate frames must be evaluated in ascending order")

// FrameDecodeError marks a frame as unavailable or corrupt. The affected
// candidate is skipped and extraction continues.
type FrameDecodeError struct {
	Index int
	Err   error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("decode frame %d: %v", e.Index, e.Err)
}

func (e *FrameDecodeError) Unwrap() error { return e.Err }

// PrimitiveComputeError marks a similarity primitive failing on malformed
// input. The failing stage assumes "different slide", which favors
// over-segmentation the deduplicator later absorbs.
type PrimitiveComputeError struct {
	Primitive string
	Err       error
}

func (e *PrimitiveComputeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Primitive, e.Err)
}

func (e *PrimitiveComputeError) Unwrap() error { return e.Err }

// RegionProviderError marks a failed exclusion-region detection. The
// comparison proceeds without masking.
type RegionProviderError struct {
	Err error
}

func (e *RegionProviderError) Error() string {
	return fmt.Sprintf("region detection: %v", e.Err)
}

func (e *RegionProviderError) Unwrap() error { return e.Err }

// OCRUnavailableError marks a failed text extraction. Both sides are treated
// as having zero words, which falls back to the raw SSIM decision.
type OCRUnavailableError struct {
	Err error
}

func (e *OCRUnavailableError) Error() string {
	return fmt.Sprintf("ocr: %v", e.Err)
}

func (e *OCRUnavailableError) Unwrap() error { return e.Err }
