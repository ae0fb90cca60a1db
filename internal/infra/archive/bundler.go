package archive

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

// Bundler packages the kept slides into a zip with a manifest.json
// describing each slide, so downstream consumers can rebuild the timeline
// without decoding images.
type Bundler struct{}

func NewBundler() *Bundler {
	return &Bundler{}
}

type manifestEntry struct {
	ID         int     `json:"id"`
	File       string  `json:"file"`
	FrameIndex int     `json:"frame_index"`
	Timestamp  float64 `json:"timestamp"`
	Hash       string  `json:"hash"`
	Text       string  `json:"text,omitempty"`
}

func (b *Bundler) Bundle(ctx context.Context, slides []*entity.Slide, outputPath string) error {
	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create bundle file: %w", err)
	}
	defer outFile.Close()

	zw := zip.NewWriter(outFile)
	defer zw.Close()

	manifest := make([]manifestEntry, 0, len(slides))
	for _, slide := range slides {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := fmt.Sprintf("slide_%04d.png", slide.ID)
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("add %s to bundle: %w", name, err)
		}
		if _, err := w.Write(slide.Image); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}

		manifest = append(manifest, manifestEntry{
			ID:         slide.ID,
			File:       name,
			FrameIndex: slide.FrameIndex,
			Timestamp:  slide.Timestamp,
			Hash:       fmt.Sprintf("%016x", uint64(slide.Hash)),
			Text:       slide.Text,
		})
	}

	mw, err := zw.Create("manifest.json")
	if err != nil {
		return fmt.Errorf("add manifest to bundle: %w", err)
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
