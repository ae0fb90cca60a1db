package entity

import "image"

// Frame is a decoded video frame with timing information. The pixel buffer
// is ephemeral: frames are not retained past the comparison that needs them.
type Frame struct {
	Index     int
	Timestamp float64
	Image     image.Image
}

// Region is an axis-aligned exclusion box in pixel coordinates, as reported
// by an external detector (typically a person bounding box).
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}
