package entity

import "math/bits"

// PerceptualHash is a 64-bit DCT sign pattern of a frame's low-frequency
// structure. Hashes of the same slide under mild recompression stay within a
// small Hamming distance of each other; visually distinct slides land far
// apart.
type PerceptualHash uint64

// HammingDistance counts differing bits between two hashes.
func (h PerceptualHash) HammingDistance(other PerceptualHash) int {
	return bits.OnesCount64(uint64(h) ^ uint64(other))
}

// Slide is an accepted, visually stable frame. It is owned by the slide store
// from creation until deduplication either confirms it unique or drops it.
// Text is attached lazily on the first OCR request.
type Slide struct {
	ID         int
	FrameIndex int
	Timestamp  float64
	Image      []byte // encoded PNG
	Hash       PerceptualHash
	Text       string
	TextCached bool
}

// SetText attaches the lazily extracted OCR text.
func (s *Slide) SetText(text string) {
	s.Text = text
	s.TextCached = true
}
