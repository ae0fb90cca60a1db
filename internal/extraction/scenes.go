package extraction

import (
	"context"
	"image"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/slidecast/slide-extraction-service/internal/domain/port"
	"github.com/slidecast/slide-extraction-service/internal/infra/metrics"
)

// sceneSimilarityMargin coarsens the SSIM cutoff for the boundary scan. The
// scan only needs to find big transitions cheaply; slide-level precision
// comes later.
const sceneSimilarityMargin = 0.1

// SceneDetector runs the coarse ~1 Hz pass over the video producing a
// monotonic list of frame indices where a big visual change occurs, subject
// to the min/max scene-length constraints.
type SceneDetector struct {
	source port.FrameSource
	cfg    Config
	logger *zap.Logger
}

func NewSceneDetector(source port.FrameSource, cfg Config, logger *zap.Logger) *SceneDetector {
	return &SceneDetector{source: source, cfg: cfg, logger: logger}
}

// DetectSceneBoundaries samples every round(fps) frames and compares each
// sample against the immediately preceding sampled frame. The result is
// sorted, strictly increasing, and always includes frame 0 and the last
// frame. Frames are decoded sequentially; decode dominates cost and codecs
// prefer forward order.
func (d *SceneDetector) DetectSceneBoundaries(ctx context.Context) ([]int, error) {
	fps := d.source.FPS()
	total := d.source.FrameCount()
	if total <= 0 || fps <= 0 {
		return nil, ErrEmptyVideo
	}

	step := int(math.Round(fps))
	if step < 1 {
		step = 1
	}
	minSceneFrames := int(d.cfg.MinSceneLength * fps)
	maxSceneFrames := int(d.cfg.MaxSceneLength * fps)

	boundaries := []int{0}
	lastBoundary := 0

	var prev image.Image
	if first, err := d.source.Frame(ctx, 0); err != nil {
		d.logger.Warn("scene scan: first frame undecodable", zap.Error(err))
	} else {
		prev = first
	}

	for idx := step; idx < total; idx += step {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cur, err := d.source.Frame(ctx, idx)
		if err != nil {
			d.logger.Warn("scene scan: skipping sample",
				zap.Int("frame", idx),
				zap.Error(err),
			)
			continue
		}

		switch {
		case idx-lastBoundary < minSceneFrames:
			// Too close to the previous boundary; keep sliding.
		case maxSceneFrames > 0 && idx-lastBoundary > maxSceneFrames:
			// Content changed too gradually for the metrics to fire;
			// force a boundary to bound worst-case scene length.
			boundaries = append(boundaries, idx)
			lastBoundary = idx
		case prev != nil && d.bigChange(prev, cur):
			boundaries = append(boundaries, idx)
			lastBoundary = idx
		}
		prev = cur
	}

	if boundaries[len(boundaries)-1] != total-1 {
		boundaries = append(boundaries, total-1)
	}
	boundaries = dedupeSorted(boundaries)

	metrics.SceneBoundariesTotal.Add(float64(len(boundaries)))
	d.logger.Info("scene boundaries detected",
		zap.Int("boundaries", len(boundaries)),
		zap.Int("total_frames", total),
	)
	return boundaries, nil
}

// bigChange runs the cheap histogram comparison and escalates to SSIM only
// when the histogram result is inconclusive.
func (d *SceneDetector) bigChange(prev, cur image.Image) bool {
	smallPrev := resizeByFactor(prev, d.cfg.ResizeFactor)
	smallCur := resizeByFactor(cur, d.cfg.ResizeFactor)

	h, err := HistogramDistance(smallPrev, smallCur)
	if err != nil {
		d.logger.Warn("scene scan: histogram failed, assuming change", zap.Error(err))
		return true
	}
	if h > d.cfg.HistogramThreshold+d.cfg.HistogramMargin {
		return true
	}
	if h <= d.cfg.HistogramThreshold {
		return false
	}

	s, err := StructuralSimilarity(smallPrev, smallCur)
	if err != nil {
		d.logger.Warn("scene scan: ssim failed, assuming change", zap.Error(err))
		return true
	}
	return s < d.cfg.SimilarityThreshold-sceneSimilarityMargin
}

func dedupeSorted(indices []int) []int {
	sort.Ints(indices)
	out := indices[:0]
	for i, v := range indices {
		if i == 0 || v != indices[i-1] {
			out = append(out, v)
		}
	}
	return out
}
