package model

// BoundingBox is a single detection in the coordinate space of the frame it was found in.
type BoundingBox struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Center returns the box center in pixels.
func (b BoundingBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// DetectionResult is what a detector returns for one frame.
type DetectionResult struct {
	Boxes []BoundingBox `json:"boxes"`
}

// Count returns the number of detections.
func (r DetectionResult) Count() int {
	return len(r.Boxes)
}

// Frame is a packed 8-bit RGB image.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// Valid reports whether the pixel buffer covers Width*Height*3 bytes.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Pix) >= f.Width*f.Height*3
}
