package port

import (
	"context"
	"image"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

// RegionDetector reports regions of a frame that should be excluded from
// slide comparisons, typically detected people in front of the content.
type RegionDetector interface {
	DetectExclusionRegions(ctx context.Context, img image.Image) ([]entity.Region, error)
}
