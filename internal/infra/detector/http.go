package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

// HTTPDetector posts frames to a person-detection sidecar and returns the
// reported bounding boxes as exclusion regions.
type HTTPDetector struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

type detectResponse struct {
	Regions []entity.Region `json:"regions"`
}

func NewHTTPDetector(url string, timeout time.Duration, logger *zap.Logger) *HTTPDetector {
	return &HTTPDetector{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (d *HTTPDetector) DetectExclusionRegions(ctx context.Context, img image.Image) ([]entity.Region, error) {
	var body bytes.Buffer
	if err := jpeg.Encode(&body, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode frame for detection: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, &body)
	if err != nil {
		return nil, fmt.Errorf("build detection request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection request: unexpected status %d", resp.StatusCode)
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode detection response: %w", err)
	}

	d.logger.Debug("exclusion regions detected", zap.Int("regions", len(parsed.Regions)))
	return parsed.Regions, nil
}
