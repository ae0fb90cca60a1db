package port

import (
	"context"
	"image"
)

// TextExtractor runs OCR over a frame region. It is only invoked when the
// classifier reaches its text stage or when a slide's cached text is first
// requested.
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image) (string, error)
}
