package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"go.uber.org/zap"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
	"github.com/slidecast/slide-extraction-service/internal/domain/port"
	"github.com/slidecast/slide-extraction-service/internal/infra/metrics"
)

// Pipeline ties the extraction core together: scene boundary detection,
// adaptive resampling, sequential classification, and the duplicate pass.
// The detector and ocr collaborators are optional; a nil detector disables
// presenter masking and a nil ocr disables the text gate.
type Pipeline struct {
	source   port.FrameSource
	detector port.RegionDetector
	ocr      port.TextExtractor
	cache    *TextCache
	cfg      Config
	logger   *zap.Logger
}

// Result carries the deduplicated slides plus the pass counts the caller
// reports downstream.
type Result struct {
	Slides            []*entity.Slide
	AcceptedCount     int
	DuplicatesRemoved int
}

func NewPipeline(source port.FrameSource, detector port.RegionDetector, ocr port.TextExtractor, cfg Config, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("extraction config: %w", err)
	}
	cache, err := NewTextCache(cfg.TextCacheSize)
	if err != nil {
		return nil, fmt.Errorf("text cache: %w", err)
	}
	return &Pipeline{
		source:   source,
		detector: detector,
		ocr:      ocr,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// DetectSceneBoundaries runs the coarse boundary scan.
func (p *Pipeline) DetectSceneBoundaries(ctx context.Context) ([]int, error) {
	return NewSceneDetector(p.source, p.cfg, p.logger).DetectSceneBoundaries(ctx)
}

// SampleAdaptiveFrames expands scene boundaries into candidate frame indices.
func (p *Pipeline) SampleAdaptiveFrames(boundaries []int) []int {
	return SampleAdaptiveFrames(boundaries, p.source.FPS(), p.source.FrameCount())
}

// Deduplicate runs the duplicate pass over an extracted slide set.
func (p *Pipeline) Deduplicate(slides []*entity.Slide) []*entity.Slide {
	return NewDeduplicator(p.cfg, p.logger).Deduplicate(slides)
}

// ExtractSlides runs the full extraction: boundaries, candidates, sequential
// classification against the last accepted slide, then deduplication.
// Cancelling the context between candidates stops extraction early;
// already-accepted slides are still deduplicated and returned.
func (p *Pipeline) ExtractSlides(ctx context.Context) (*Result, error) {
	if p.source.FrameCount() <= 0 || p.source.FPS() <= 0 {
		return nil, ErrEmptyVideo
	}

	boundaries, err := p.DetectSceneBoundaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect scene boundaries: %w", err)
	}
	candidates := p.SampleAdaptiveFrames(boundaries)
	p.logger.Info("candidate frames sampled",
		zap.Int("scenes", len(boundaries)-1),
		zap.Int("candidates", len(candidates)),
	)

	classifier := NewClassifier(p.cfg, p.detector, p.ocr, p.cache, p.logger)
	store := NewSlideStore()

	frames := p.prefetchFrames(ctx, candidates)
	stopped := false
	for res := range frames {
		if ctx.Err() != nil {
			stopped = true
			break
		}
		if res.err != nil {
			p.logger.Warn("candidate skipped", zap.Error(res.err))
			continue
		}

		accepted, err := classifier.Evaluate(ctx, res.frame)
		if err != nil {
			return nil, fmt.Errorf("classify frame %d: %w", res.frame.Index, err)
		}
		if !accepted {
			continue
		}

		if err := p.acceptSlide(store, res.frame); err != nil {
			p.logger.Warn("accepted frame not stored", zap.Int("frame", res.frame.Index), zap.Error(err))
		}
	}
	if stopped {
		p.logger.Info("extraction stopped early", zap.Int("slides_so_far", store.Len()))
	}

	accepted := store.Len()
	kept := p.Deduplicate(store.Slides())

	metrics.SlidesExtractedTotal.Add(float64(len(kept)))
	p.logger.Info("extraction finished",
		zap.Int("accepted", accepted),
		zap.Int("kept", len(kept)),
		zap.Int("duplicates_removed", accepted-len(kept)),
	)
	return &Result{
		Slides:            kept,
		AcceptedCount:     accepted,
		DuplicatesRemoved: accepted - len(kept),
	}, nil
}

func (p *Pipeline) acceptSlide(store *SlideStore, frame *entity.Frame) error {
	hash, err := HashImage(frame.Image)
	if err != nil {
		// Keep the slide anyway; a zero hash makes it compare far from
		// everything in the duplicate pass.
		var perr *PrimitiveComputeError
		if !errors.As(err, &perr) {
			return err
		}
		p.logger.Warn("slide hash unavailable", zap.Int("frame", frame.Index), zap.Error(err))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image); err != nil {
		return fmt.Errorf("encode slide: %w", err)
	}

	slide := store.Append(frame, buf.Bytes(), hash)
	p.logger.Debug("slide accepted",
		zap.Int("slide_id", slide.ID),
		zap.Int("frame", frame.Index),
		zap.Float64("timestamp", frame.Timestamp),
	)
	return nil
}
