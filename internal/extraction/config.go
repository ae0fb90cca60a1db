package extraction

import "fmt"

// Config holds the comparator thresholds and pipeline knobs. It is supplied
// once at pipeline construction and never mutated during a run. The borderline
// bands were tuned empirically on lecture recordings; they are deliberately
// configuration, not constants.
type Config struct {
	// SimilarityThreshold is the SSIM cutoff the similarity gates derive
	// their accept/reject offsets from.
	SimilarityThreshold float64
	// SSIMAcceptOffset, SSIMRejectOffset and SSIMOverrideOffset are
	// subtracted from SimilarityThreshold to form the SSIM gate's accept
	// band, reject band, and the histogram double-check override.
	SSIMAcceptOffset   float64
	SSIMRejectOffset   float64
	SSIMOverrideOffset float64

	// HistogramThreshold is the Bhattacharyya distance cutoff; distances
	// within HistogramMargin above it are double-checked against SSIM.
	HistogramThreshold float64
	HistogramMargin    float64

	// HashAcceptBand and HashRejectBand bound the perceptual-hash gate.
	// Hamming distances below the accept band mean "same slide", above the
	// reject band mean "different slide"; the zone between them escalates
	// to the slower comparators.
	HashAcceptBand int
	HashRejectBand int

	// DedupeHashBand is the single aggressive Hamming band of the
	// post-extraction duplicate pass; distances up to DedupeEscalateBand
	// are escalated to a direct SSIM comparison of the stored images.
	DedupeHashBand     int
	DedupeEscalateBand int

	// TextDiffThreshold is the word-overlap cutoff of the OCR stage.
	TextDiffThreshold float64

	// ResizeFactor pre-scales frames before histogram and SSIM work.
	ResizeFactor float64

	// MinSceneLength and MaxSceneLength bound scene durations in seconds.
	// A boundary is forced every MaxSceneLength even without a detected
	// change.
	MinSceneLength float64
	MaxSceneLength float64

	// MaskMargin is the fraction cropped from each side when the region
	// detector reports exclusion regions.
	MaskMargin float64

	// DecodeWorkers bounds the frame-decode worker pool.
	DecodeWorkers int

	// TextCacheSize bounds the OCR text cache (entries).
	TextCacheSize int
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.85,
		SSIMAcceptOffset:    0.10,
		SSIMRejectOffset:    0.20,
		SSIMOverrideOffset:  0.15,
		HistogramThreshold:  0.35,
		HistogramMargin:     0.05,
		HashAcceptBand:      20,
		HashRejectBand:      25,
		DedupeHashBand:      25,
		DedupeEscalateBand:  35,
		TextDiffThreshold:   0.85,
		ResizeFactor:        0.5,
		MinSceneLength:      2.0,
		MaxSceneLength:      60.0,
		MaskMargin:          0.2,
		DecodeWorkers:       4,
		TextCacheSize:       256,
	}
}

func (c Config) Validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold %.3f out of (0,1]", c.SimilarityThreshold)
	}
	if c.HistogramThreshold <= 0 || c.HistogramThreshold > 1 {
		return fmt.Errorf("histogram threshold %.3f out of (0,1]", c.HistogramThreshold)
	}
	if c.HashAcceptBand < 0 || c.HashRejectBand > 64 || c.HashAcceptBand > c.HashRejectBand {
		return fmt.Errorf("hash bands %d/%d invalid", c.HashAcceptBand, c.HashRejectBand)
	}
	if c.DedupeHashBand < 0 || c.DedupeEscalateBand > 64 || c.DedupeHashBand > c.DedupeEscalateBand {
		return fmt.Errorf("dedupe bands %d/%d invalid", c.DedupeHashBand, c.DedupeEscalateBand)
	}
	if c.ResizeFactor <= 0 || c.ResizeFactor > 1 {
		return fmt.Errorf("resize factor %.3f out of (0,1]", c.ResizeFactor)
	}
	if c.MinSceneLength < 0 || c.MaxSceneLength <= 0 || c.MinSceneLength >= c.MaxSceneLength {
		return fmt.Errorf("scene lengths %.1fs/%.1fs invalid", c.MinSceneLength, c.MaxSceneLength)
	}
	if c.MaskMargin < 0 || c.MaskMargin >= 0.5 {
		return fmt.Errorf("mask margin %.2f out of [0,0.5)", c.MaskMargin)
	}
	if c.DecodeWorkers < 1 {
		return fmt.Errorf("decode workers %d < 1", c.DecodeWorkers)
	}
	if c.TextCacheSize < 1 {
		return fmt.Errorf("text cache size %d < 1", c.TextCacheSize)
	}
	return nil
}
