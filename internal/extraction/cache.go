package extraction

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
)

// TextCache is a bounded cache of OCR output keyed by perceptual hash, so
// repeated text-stage visits to visually identical frames pay for OCR once.
type TextCache struct {
	lru *lru.Cache[uint64, string]
}

func NewTextCache(size int) (*TextCache, error) {
	c, err := lru.New[uint64, string](size)
	if err != nil {
		return nil, err
	}
	return &TextCache{lru: c}, nil
}

func (c *TextCache) Get(hash entity.PerceptualHash) (string, bool) {
	return c.lru.Get(uint64(hash))
}

func (c *TextCache) Put(hash entity.PerceptualHash, text string) {
	c.lru.Add(uint64(hash), text)
}

func (c *TextCache) Len() int {
	return c.lru.Len()
}
