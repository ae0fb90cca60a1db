package extraction

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testSlide(t *testing.T, id int, hash uint64, img image.Image) *entity.Slide {
	t.Helper()
	s := &entity.Slide{
		ID:         id,
		FrameIndex: id * 30,
		Timestamp:  float64(id),
		Hash:       entity.PerceptualHash(hash),
	}
	if img != nil {
		s.Image = encodePNG(t, img)
	}
	return s
}

func TestDeduplicateMergesWithinHashBand(t *testing.T) {
	d := NewDeduplicator(DefaultConfig(), zap.NewNop())

	// Hamming distance 10, inside the default 25 band; no image decode needed.
	first := testSlide(t, 0, 0, nil)
	near := testSlide(t, 1, (1<<10)-1, nil)

	kept := d.Deduplicate([]*entity.Slide{first, near})
	require.Len(t, kept, 1)
	assert.Equal(t, 0, kept[0].ID, "the earlier slide survives")
	assert.Nil(t, near.Image)
}

func TestDeduplicateKeepsDistantSlides(t *testing.T) {
	d := NewDeduplicator(DefaultConfig(), zap.NewNop())

	// Hamming distance 40, past the escalation band; kept without decoding.
	first := testSlide(t, 0, 0, nil)
	far := testSlide(t, 1, (1<<40)-1, nil)

	kept := d.Deduplicate([]*entity.Slide{first, far})
	assert.Len(t, kept, 2)
}

func TestDeduplicateEscalationMergesIdenticalImages(t *testing.T) {
	d := NewDeduplicator(DefaultConfig(), zap.NewNop())
	img := slideLikeImage(160, 120)

	// Distance 30 lands between the hash band and the escalation band, so
	// the stored images break the tie.
	first := testSlide(t, 0, 0, img)
	borderline := testSlide(t, 1, (1<<30)-1, img)

	kept := d.Deduplicate([]*entity.Slide{first, borderline})
	require.Len(t, kept, 1)
	assert.Equal(t, 0, kept[0].ID)
}

func TestDeduplicateEscalationKeepsDissimilarImages(t *testing.T) {
	d := NewDeduplicator(DefaultConfig(), zap.NewNop())
	img := slideLikeImage(160, 120)

	first := testSlide(t, 0, 0, img)
	borderline := testSlide(t, 1, (1<<30)-1, invertImage(img))

	kept := d.Deduplicate([]*entity.Slide{first, borderline})
	assert.Len(t, kept, 2)
}

func TestDeduplicateEscalationKeepsUndecodableSlides(t *testing.T) {
	d := NewDeduplicator(DefaultConfig(), zap.NewNop())

	first := testSlide(t, 0, 0, slideLikeImage(160, 120))
	broken := testSlide(t, 1, (1<<30)-1, nil)
	broken.Image = []byte("not a png")

	kept := d.Deduplicate([]*entity.Slide{first, broken})
	assert.Len(t, kept, 2, "an undecodable borderline slide is kept, not dropped")
}

func TestDeduplicateFlickerReturnsToEarlierSlide(t *testing.T) {
	d := NewDeduplicator(DefaultConfig(), zap.NewNop())

	// A brief interruption produces A, B, A'; A' collapses into A.
	a := testSlide(t, 0, 0, nil)
	b := testSlide(t, 1, ^uint64(0), nil)
	aAgain := testSlide(t, 2, 0x7, nil)

	kept := d.Deduplicate([]*entity.Slide{a, b, aAgain})
	require.Len(t, kept, 2)
	assert.Equal(t, 0, kept[0].ID)
	assert.Equal(t, 1, kept[1].ID)
	assert.Nil(t, aAgain.Image)
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	d := NewDeduplicator(DefaultConfig(), zap.NewNop())

	slides := []*entity.Slide{
		testSlide(t, 0, 0, nil),
		testSlide(t, 1, ^uint64(0), nil),
		testSlide(t, 2, 0x3FF, nil),
	}

	once := d.Deduplicate(slides)
	twice := d.Deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicateTrivialInput(t *testing.T) {
	d := NewDeduplicator(DefaultConfig(), zap.NewNop())

	assert.Empty(t, d.Deduplicate(nil))

	single := []*entity.Slide{testSlide(t, 0, 0, nil)}
	assert.Equal(t, single, d.Deduplicate(single))
}
