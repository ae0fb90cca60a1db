package extraction

import "math"

// Adaptive resampling tiers. Static long scenes need few samples; short
// content-dense scenes need denser sampling to catch quick slide flips.
const (
	shortSceneSeconds  = 5.0
	mediumSceneSeconds = 15.0

	shortSceneInterval  = 1.5
	mediumSceneInterval = 2.5
	longSceneInterval   = 4.0

	// Scenes shorter than this many seconds get only their start frame.
	minResampleSeconds = 1.5
)

// SampleAdaptiveFrames expands each detected scene into the candidate frame
// indices the classifier will evaluate, with sampling density inversely
// proportional to scene duration. The result is sorted, deduplicated, and
// always contains the last frame.
func SampleAdaptiveFrames(boundaries []int, fps float64, totalFrames int) []int {
	if len(boundaries) == 0 || fps <= 0 || totalFrames <= 0 {
		return nil
	}

	candidates := make([]int, 0, len(boundaries)*4)
	for i := 0; i+1 < len(boundaries); i++ {
		start, end := boundaries[i], boundaries[i+1]
		candidates = append(candidates, start)

		if float64(end-start) < minResampleSeconds*fps {
			continue
		}

		durationSec := float64(end-start) / fps
		var intervalSec float64
		switch {
		case durationSec < shortSceneSeconds:
			intervalSec = shortSceneInterval
		case durationSec < mediumSceneSeconds:
			intervalSec = mediumSceneInterval
		default:
			intervalSec = longSceneInterval
		}

		step := int(math.Round(intervalSec * fps))
		if step < 1 {
			step = 1
		}
		for f := start + step; f < end; f += step {
			candidates = append(candidates, f)
		}
	}

	candidates = append(candidates, boundaries[len(boundaries)-1], totalFrames-1)
	return dedupeSorted(candidates)
}
