package port

import (
	"context"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

// ResultBundler packages the kept slides into a single artifact for upload.
type ResultBundler interface {
	Bundle(ctx context.Context, slides []*entity.Slide, outputPath string) error
}
