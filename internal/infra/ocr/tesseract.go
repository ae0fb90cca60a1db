package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Tesseract shells out to the tesseract binary, feeding the frame as PNG on
// stdin and reading recognized text from stdout.
type Tesseract struct {
	binary    string
	languages string
	logger    *zap.Logger
}

func NewTesseract(binary, languages string, logger *zap.Logger) *Tesseract {
	return &Tesseract{binary: binary, languages: languages, logger: logger}
}

func (t *Tesseract) ExtractText(ctx context.Context, img image.Image) (string, error) {
	var input bytes.Buffer
	if err := png.Encode(&input, img); err != nil {
		return "", fmt.Errorf("encode frame for ocr: %w", err)
	}

	// PSM 6: assume a single uniform block of text, the common case for
	// slides and code screens.
	cmd := exec.CommandContext(ctx, t.binary,
		"stdin", "stdout",
		"-l", t.languages,
		"--psm", "6",
	)
	cmd.Stdin = &input

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	text := strings.TrimSpace(stdout.String())
	t.logger.Debug("ocr completed", zap.Int("chars", len(text)))
	return text, nil
}
