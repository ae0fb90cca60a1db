package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/slidecast/slide-extraction-service/internal/domain/port"
)

// Opener probes local video files with ffprobe and hands out frame sources
// backed by ffmpeg. Each frame request runs its own ffmpeg process, so
// requests are independent and safe to issue from a worker pool.
type Opener struct {
	logger *zap.Logger
}

func NewOpener(logger *zap.Logger) *Opener {
	return &Opener{logger: logger}
}

func (o *Opener) Open(ctx context.Context, videoPath string) (port.FrameSource, error) {
	fps, frameCount, duration, err := probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	o.logger.Info("video probed",
		zap.String("path", videoPath),
		zap.Float64("fps", fps),
		zap.Int("frames", frameCount),
		zap.Float64("duration_secs", duration),
	)

	return &source{
		path:       videoPath,
		fps:        fps,
		frameCount: frameCount,
		duration:   duration,
	}, nil
}

type source struct {
	path       string
	fps        float64
	frameCount int
	duration   float64
}

func (s *source) FPS() float64      { return s.fps }
func (s *source) FrameCount() int   { return s.frameCount }
func (s *source) Duration() float64 { return s.duration }
func (s *source) Close() error      { return nil }

// Frame decodes a single frame by index: seek to the frame's timestamp, grab
// one frame, pipe it out as PNG.
func (s *source) Frame(ctx context.Context, index int) (image.Image, error) {
	if index < 0 || index >= s.frameCount {
		return nil, fmt.Errorf("frame index %d out of range [0,%d)", index, s.frameCount)
	}

	ts := float64(index) / s.fps
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", strconv.FormatFloat(ts, 'f', 6, 64),
		"-i", s.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame %d: %w, stderr: %s", index, err, truncate(stderr.String()))
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", index, err)
	}
	return img, nil
}

func probe(ctx context.Context, videoPath string) (fps float64, frameCount int, duration float64, err error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=avg_frame_rate,nb_read_packets",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe: %w", err)
	}

	for _, line := range strings.Split(string(output), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "avg_frame_rate":
			fps = parseRational(value)
		case "nb_read_packets":
			frameCount, _ = strconv.Atoi(value)
		case "duration":
			duration, _ = strconv.ParseFloat(value, 64)
		}
	}

	if frameCount == 0 && fps > 0 && duration > 0 {
		frameCount = int(math.Round(duration * fps))
	}
	if fps <= 0 || frameCount <= 0 {
		return 0, 0, 0, fmt.Errorf("ffprobe: no usable video stream in %s", videoPath)
	}
	return fps, frameCount, duration, nil
}

func parseRational(value string) float64 {
	num, den, found := strings.Cut(value, "/")
	if !found {
		f, _ := strconv.ParseFloat(value, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func truncate(s string) string {
	const max = 512
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
