package extraction

import (
	"bytes"
	"image"
	"image/png"

	"go.uber.org/zap"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
	"github.com/slidecast/slide-extraction-service/internal/infra/metrics"
)

// Deduplicator re-scans the extracted slide set pairwise and merges
// near-duplicates the sequential classifier failed to unify, for example a
// slide interrupted by a flicker frame. The earlier slide is always the one
// retained.
type Deduplicator struct {
	cfg    Config
	logger *zap.Logger
}

func NewDeduplicator(cfg Config, logger *zap.Logger) *Deduplicator {
	return &Deduplicator{cfg: cfg, logger: logger}
}

// Deduplicate returns the slides that survive the duplicate pass, in
// chronological order. Each slide is compared against every earlier kept
// slide; a match removes it and releases its backing image. The pass is
// O(n²) over tens to low hundreds of slides, which is fine.
//
// Running the pass on its own output removes nothing further.
func (d *Deduplicator) Deduplicate(slides []*entity.Slide) []*entity.Slide {
	if len(slides) <= 1 {
		return slides
	}

	kept := make([]*entity.Slide, 0, len(slides))
	kept = append(kept, slides[0])

	for _, slide := range slides[1:] {
		duplicateOf := -1
		for _, earlier := range kept {
			if d.isDuplicate(slide, earlier) {
				duplicateOf = earlier.ID
				break
			}
		}
		if duplicateOf < 0 {
			kept = append(kept, slide)
			continue
		}

		slide.Image = nil
		metrics.SlidesDeduplicatedTotal.Inc()
		d.logger.Debug("duplicate slide removed",
			zap.Int("slide_id", slide.ID),
			zap.Int("duplicate_of", duplicateOf),
			zap.Float64("timestamp", slide.Timestamp),
		)
	}
	return kept
}

// isDuplicate applies the hash gate with a single aggressive band; the
// borderline zone above it escalates to SSIM on the stored images. This pass
// has no per-frame region data, so the comparison is always unmasked.
func (d *Deduplicator) isDuplicate(slide, earlier *entity.Slide) bool {
	dist := slide.Hash.HammingDistance(earlier.Hash)
	if dist < d.cfg.DedupeHashBand {
		return true
	}
	if dist >= d.cfg.DedupeEscalateBand {
		return false
	}

	slideImg, err := decodeSlideImage(slide)
	if err != nil {
		d.logger.Warn("dedupe: stored image undecodable, keeping slide",
			zap.Int("slide_id", slide.ID), zap.Error(err))
		return false
	}
	earlierImg, err := decodeSlideImage(earlier)
	if err != nil {
		d.logger.Warn("dedupe: stored image undecodable, keeping slide",
			zap.Int("slide_id", earlier.ID), zap.Error(err))
		return false
	}

	ssim, err := StructuralSimilarity(
		resizeByFactor(slideImg, d.cfg.ResizeFactor),
		resizeByFactor(earlierImg, d.cfg.ResizeFactor),
	)
	if err != nil {
		d.logger.Warn("dedupe: ssim failed, keeping slide",
			zap.Int("slide_id", slide.ID), zap.Error(err))
		return false
	}
	return ssim > d.cfg.SimilarityThreshold
}

func decodeSlideImage(slide *entity.Slide) (image.Image, error) {
	if len(slide.Image) == 0 {
		return nil, &PrimitiveComputeError{Primitive: "dedupe_decode", Err: errEmptySlideImage}
	}
	return png.Decode(bytes.NewReader(slide.Image))
}
