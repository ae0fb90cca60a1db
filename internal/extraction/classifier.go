package extraction

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
	"github.com/slidecast/slide-extraction-service/internal/domain/port"
	"github.com/slidecast/slide-extraction-service/internal/infra/metrics"
)

// Classifier decides whether a candidate frame shows a different slide than
// the last accepted one. It is a stateful sliding comparison: every decision
// is made against the last accepted slide frame, never the previous
// candidate, and candidates must arrive in ascending index order.
//
// The comparator stages are cost-ordered: perceptual hash first (cheapest,
// decides the vast majority of frames), then histogram, then SSIM, then OCR
// word overlap for the genuinely borderline remainder.
type Classifier struct {
	cfg      Config
	detector port.RegionDetector // optional
	ocr      port.TextExtractor  // optional
	cache    *TextCache
	logger   *zap.Logger

	last *entity.Frame
}

func NewClassifier(cfg Config, detector port.RegionDetector, ocr port.TextExtractor, cache *TextCache, logger *zap.Logger) *Classifier {
	return &Classifier{
		cfg:      cfg,
		detector: detector,
		ocr:      ocr,
		cache:    cache,
		logger:   logger,
	}
}

// Evaluate classifies the next candidate. The first candidate is always
// accepted unconditionally. A true return means the candidate became the new
// reference slide; false means it was discarded and the reference is
// unchanged.
func (c *Classifier) Evaluate(ctx context.Context, frame *entity.Frame) (bool, error) {
	if c.last == nil {
		c.last = frame
		return true, nil
	}
	if frame.Index <= c.last.Index {
		return false, fmt.Errorf("%w: frame %d after frame %d", ErrOutOfOrder, frame.Index, c.last.Index)
	}

	if !c.IsDifferentSlide(ctx, frame.Image, c.last.Image) {
		return false, nil
	}
	c.last = frame
	return true, nil
}

// LastAccepted returns the current reference frame, nil before the first
// candidate.
func (c *Classifier) LastAccepted() *entity.Frame {
	return c.last
}

// IsDifferentSlide runs the multi-stage decision procedure over a candidate
// and a reference frame. Any stage failing on malformed input decides
// "different": over-segmentation is recoverable by the deduplicator, a
// silently dropped slide transition is not.
func (c *Classifier) IsDifferentSlide(ctx context.Context, candidate, reference image.Image) bool {
	candidate, reference = c.maskFrames(ctx, candidate, reference)

	// Hash gate.
	candHash, errC := HashImage(candidate)
	refHash, errR := HashImage(reference)
	if errC != nil || errR != nil {
		c.logger.Warn("hash gate failed, assuming different",
			zap.NamedError("candidate_err", errC),
			zap.NamedError("reference_err", errR),
		)
		metrics.ComparatorDecisionsTotal.WithLabelValues("hash", "error").Inc()
		return true
	}
	dist := candHash.HammingDistance(refHash)
	if dist < c.cfg.HashAcceptBand {
		metrics.ComparatorDecisionsTotal.WithLabelValues("hash", "same").Inc()
		return false
	}
	if dist > c.cfg.HashRejectBand {
		metrics.ComparatorDecisionsTotal.WithLabelValues("hash", "different").Inc()
		return true
	}

	// Uncertain hash zone: escalate to the pixel comparators on resized
	// frames.
	smallCand := resizeByFactor(candidate, c.cfg.ResizeFactor)
	smallRef := resizeByFactor(reference, c.cfg.ResizeFactor)

	if different, decided := c.histogramStage(smallCand, smallRef); decided {
		return different
	}

	ssim, err := StructuralSimilarity(smallCand, smallRef)
	if err != nil {
		c.logger.Warn("ssim gate failed, assuming different", zap.Error(err))
		metrics.ComparatorDecisionsTotal.WithLabelValues("ssim", "error").Inc()
		return true
	}
	if different, decided := c.ssimStage(ssim); decided {
		return different
	}

	return c.textStage(ctx, candidate, reference, candHash, refHash, ssim)
}

// histogramStage decides on Bhattacharyya distance. Distances within the
// margin above the threshold are double-checked against SSIM, where a
// similarity above threshold-override wins back a "same" verdict.
func (c *Classifier) histogramStage(candidate, reference image.Image) (different, decided bool) {
	h, err := HistogramDistance(candidate, reference)
	if err != nil {
		c.logger.Warn("histogram gate failed, assuming different", zap.Error(err))
		metrics.ComparatorDecisionsTotal.WithLabelValues("histogram", "error").Inc()
		return true, true
	}
	if h <= c.cfg.HistogramThreshold {
		return false, false
	}
	if h > c.cfg.HistogramThreshold+c.cfg.HistogramMargin {
		metrics.ComparatorDecisionsTotal.WithLabelValues("histogram", "different").Inc()
		return true, true
	}

	s, err := StructuralSimilarity(candidate, reference)
	if err != nil {
		c.logger.Warn("histogram double-check failed, assuming different", zap.Error(err))
		metrics.ComparatorDecisionsTotal.WithLabelValues("histogram", "error").Inc()
		return true, true
	}
	if s > c.cfg.SimilarityThreshold-c.cfg.SSIMOverrideOffset {
		metrics.ComparatorDecisionsTotal.WithLabelValues("histogram", "same").Inc()
		return false, true
	}
	metrics.ComparatorDecisionsTotal.WithLabelValues("histogram", "different").Inc()
	return true, true
}

// ssimStage decides on the similarity score unless it lands in the
// borderline band between the reject and accept offsets.
func (c *Classifier) ssimStage(ssim float64) (different, decided bool) {
	if ssim < c.cfg.SimilarityThreshold-c.cfg.SSIMRejectOffset {
		metrics.ComparatorDecisionsTotal.WithLabelValues("ssim", "different").Inc()
		return true, true
	}
	if ssim > c.cfg.SimilarityThreshold-c.cfg.SSIMAcceptOffset {
		metrics.ComparatorDecisionsTotal.WithLabelValues("ssim", "same").Inc()
		return false, true
	}
	return false, false
}

// textStage is only reached on a genuinely borderline SSIM band. When OCR is
// unavailable or either side has fewer than 3 recognizable words, the raw
// SSIM threshold decides.
func (c *Classifier) textStage(ctx context.Context, candidate, reference image.Image, candHash, refHash entity.PerceptualHash, ssim float64) bool {
	fallback := ssim < c.cfg.SimilarityThreshold

	if c.ocr == nil {
		metrics.ComparatorDecisionsTotal.WithLabelValues("text", "fallback").Inc()
		return fallback
	}

	candText, errC := c.extractText(ctx, candidate, candHash)
	refText, errR := c.extractText(ctx, reference, refHash)
	if errC != nil || errR != nil {
		c.logger.Warn("text gate unavailable, using ssim fallback",
			zap.NamedError("candidate_err", errC),
			zap.NamedError("reference_err", errR),
		)
		metrics.ComparatorDecisionsTotal.WithLabelValues("text", "fallback").Inc()
		return fallback
	}
	if WordCount(candText) < 3 || WordCount(refText) < 3 {
		metrics.ComparatorDecisionsTotal.WithLabelValues("text", "fallback").Inc()
		return fallback
	}

	if TextOverlapRatio(candText, refText) > c.cfg.TextDiffThreshold {
		metrics.ComparatorDecisionsTotal.WithLabelValues("text", "different").Inc()
		return true
	}
	metrics.ComparatorDecisionsTotal.WithLabelValues("text", "same").Inc()
	return false
}

func (c *Classifier) extractText(ctx context.Context, img image.Image, hash entity.PerceptualHash) (string, error) {
	if c.cache != nil {
		if text, ok := c.cache.Get(hash); ok {
			return text, nil
		}
	}
	text, err := c.ocr.ExtractText(ctx, img)
	if err != nil {
		return "", &OCRUnavailableError{Err: err}
	}
	if c.cache != nil {
		c.cache.Put(hash, text)
	}
	return text, nil
}

// maskFrames applies presenter-region exclusion. Any detected region on
// either frame switches both to a fixed central crop; compositing the exact
// boxes would chase jitter in detected box size and position.
func (c *Classifier) maskFrames(ctx context.Context, candidate, reference image.Image) (image.Image, image.Image) {
	if c.detector == nil {
		return candidate, reference
	}

	candRegions, errC := c.detector.DetectExclusionRegions(ctx, candidate)
	refRegions, errR := c.detector.DetectExclusionRegions(ctx, reference)
	if errC != nil || errR != nil {
		err := errC
		if err == nil {
			err = errR
		}
		c.logger.Warn("region detection failed, comparing unmasked",
			zap.Error(&RegionProviderError{Err: err}),
		)
		return candidate, reference
	}
	if len(candRegions) == 0 && len(refRegions) == 0 {
		return candidate, reference
	}
	return centralCrop(candidate, c.cfg.MaskMargin), centralCrop(reference, c.cfg.MaskMargin)
}
