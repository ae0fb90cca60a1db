package extraction

import (
	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

// SlideStore owns accepted slides from creation until deduplication. It is
// append-only during extraction; only the deduplicator removes entries.
type SlideStore struct {
	slides []*entity.Slide
	nextID int
}

func NewSlideStore() *SlideStore {
	return &SlideStore{}
}

// Append records an accepted candidate as a slide with a monotonic id.
func (s *SlideStore) Append(frame *entity.Frame, encoded []byte, hash entity.PerceptualHash) *entity.Slide {
	slide := &entity.Slide{
		ID:         s.nextID,
		FrameIndex: frame.Index,
		Timestamp:  frame.Timestamp,
		Image:      encoded,
		Hash:       hash,
	}
	s.nextID++
	s.slides = append(s.slides, slide)
	return slide
}

// Slides returns the stored slides in chronological order.
func (s *SlideStore) Slides() []*entity.Slide {
	return s.slides
}

func (s *SlideStore) Len() int {
	return len(s.slides)
}
