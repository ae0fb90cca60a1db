package extraction

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

func TestHashImageStableUnderRecompression(t *testing.T) {
	original := slideLikeImage(256, 192)
	recompressed := jpegCycle(t, original, 85)

	h1, err := HashImage(original)
	require.NoError(t, err)
	h2, err := HashImage(recompressed)
	require.NoError(t, err)

	assert.Less(t, h1.HammingDistance(h2), 20,
		"jpeg recompression must not push the hash past the reject band")
}

func TestHashImageDiscriminatesInvertedContent(t *testing.T) {
	original := slideLikeImage(256, 192)
	inverted := invertImage(original)

	h1, err := HashImage(original)
	require.NoError(t, err)
	h2, err := HashImage(inverted)
	require.NoError(t, err)

	assert.Greater(t, h1.HammingDistance(h2), 25,
		"inverting flips the sign of every DCT coefficient")
}

func TestHashImageEmpty(t *testing.T) {
	_, err := HashImage(nil)
	require.Error(t, err)

	var perr *PrimitiveComputeError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "perceptual_hash", perr.Primitive)
}

func TestHammingDistance(t *testing.T) {
	assert.Equal(t, 0, entity.PerceptualHash(0).HammingDistance(0))
	assert.Equal(t, 4, entity.PerceptualHash(0).HammingDistance(0xF))
	assert.Equal(t, 64, entity.PerceptualHash(0).HammingDistance(^entity.PerceptualHash(0)))
	assert.Equal(t, 1, entity.PerceptualHash(1<<63).HammingDistance(0))
}

func TestHistogramDistanceIdentical(t *testing.T) {
	img := noiseImage(160, 120, 7, 1)

	d, err := HistogramDistance(img, img)
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 0.01)
}

func TestHistogramDistanceDisjointColors(t *testing.T) {
	red := solidImage(160, 120, color.NRGBA{R: 255, A: 255})
	blue := solidImage(160, 120, color.NRGBA{B: 255, A: 255})

	d, err := HistogramDistance(red, blue)
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-9, "disjoint color bins give the maximum distance")
}

func TestHistogramDistanceEmptyImage(t *testing.T) {
	img := noiseImage(32, 32, 1, 0)

	_, err := HistogramDistance(nil, img)
	require.Error(t, err)
	_, err = HistogramDistance(img, nil)
	require.Error(t, err)
}

func TestStructuralSimilarityIdentical(t *testing.T) {
	img := slideLikeImage(160, 120)

	s, err := StructuralSimilarity(img, img)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)
}

func TestStructuralSimilarityInverted(t *testing.T) {
	img := slideLikeImage(160, 120)

	s, err := StructuralSimilarity(img, invertImage(img))
	require.NoError(t, err)
	assert.Less(t, s, 0.5)
}

func TestStructuralSimilarityResizesMismatchedFrames(t *testing.T) {
	a := slideLikeImage(160, 120)
	b := slideLikeImage(320, 240)

	s, err := StructuralSimilarity(a, b)
	require.NoError(t, err)
	assert.Greater(t, s, 0.8, "same content at a different resolution stays similar")
}

func TestStructuralSimilaritySmallerThanWindow(t *testing.T) {
	tiny := solidImage(4, 4, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	_, err := StructuralSimilarity(tiny, tiny)
	require.Error(t, err)

	var perr *PrimitiveComputeError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "structural_similarity", perr.Primitive)
}

func TestTextOverlapRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"both empty", "", "", 0},
		{"identical", "intro to go testing", "intro to go testing", 0},
		{"case and whitespace insensitive", "Intro  To GO", "intro to go", 0},
		{"disjoint", "alpha beta gamma", "delta epsilon zeta", 1},
		{"half overlap", "alpha beta gamma delta", "alpha beta nu xi", 0.5},
		{"one side empty", "alpha beta", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TextOverlapRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   \n\t"))
	assert.Equal(t, 3, WordCount("  one two\nthree "))
}

func TestResizeByFactor(t *testing.T) {
	img := slideLikeImage(160, 120)

	small := resizeByFactor(img, 0.5)
	assert.Equal(t, 80, small.Bounds().Dx())
	assert.Equal(t, 60, small.Bounds().Dy())

	same := resizeByFactor(img, 1.0)
	assert.Equal(t, img.Bounds(), same.Bounds())

	floor := resizeByFactor(solidImage(3, 3, color.NRGBA{A: 255}), 0.1)
	assert.Equal(t, 1, floor.Bounds().Dx())
	assert.Equal(t, 1, floor.Bounds().Dy())
}

func TestCentralCrop(t *testing.T) {
	img := slideLikeImage(100, 50)

	inner := centralCrop(img, 0.2)
	assert.Equal(t, 60, inner.Bounds().Dx())
	assert.Equal(t, 30, inner.Bounds().Dy())

	untouched := centralCrop(img, 0)
	assert.Equal(t, 100, untouched.Bounds().Dx())
}
