// Package geometry maps camera frames onto model input sizes.
package geometry

import "math"

// Crop is an aspect-preserving source region and the factors that map it
// onto the destination buffer.
type Crop struct {
	X, Y, W, H     int
	ScaleX, ScaleY float64
}

// Box is an axis-aligned rectangle in pixels.
type Box struct {
	X, Y, W, H int
}

// Letterbox computes the centered crop of a srcW x srcH image that has the
// aspect ratio of dstW x dstH. Degenerate sizes return the full source.
func Letterbox(srcW, srcH, dstW, dstH int) Crop {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		c := Crop{W: srcW, H: srcH, ScaleX: 1, ScaleY: 1}
		if dstW > 0 {
			c.ScaleX = float64(srcW) / float64(dstW)
		}
		if dstH > 0 {
			c.ScaleY = float64(srcH) / float64(dstH)
		}
		return c
	}

	srcAR := float64(srcW) / float64(srcH)
	dstAR := float64(dstW) / float64(dstH)

	var c Crop
	if srcAR > dstAR {
		c.H = srcH
		c.W = clamp(int(math.RoundToEven(float64(srcH)*dstAR)), 1, srcW)
		c.X = (srcW - c.W) / 2
	} else {
		c.W = srcW
		c.H = clamp(int(math.RoundToEven(float64(srcW)/dstAR)), 1, srcH)
		c.Y = (srcH - c.H) / 2
	}

	c.ScaleX = float64(c.W) / float64(dstW)
	c.ScaleY = float64(c.H) / float64(dstH)
	return c
}

// ToSource maps a box found in destination (model input) space back to
// source pixels, clipped to the crop region.
func (c Crop) ToSource(b Box) Box {
	x0 := c.X + int(math.Round(float64(b.X)*c.ScaleX))
	y0 := c.Y + int(math.Round(float64(b.Y)*c.ScaleY))
	x1 := c.X + int(math.Round(float64(b.X+b.W)*c.ScaleX))
	y1 := c.Y + int(math.Round(float64(b.Y+b.H)*c.ScaleY))

	x0 = clamp(x0, c.X, c.X+c.W)
	y0 = clamp(y0, c.Y, c.Y+c.H)
	x1 = clamp(x1, c.X, c.X+c.W)
	y1 = clamp(y1, c.Y, c.Y+c.H)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Square grows b into a square of side size centered on b, shifted to stay
// inside a w x h image. size is capped by the image dimensions.
func Square(b Box, size, w, h int) Box {
	size = min(size, w, h)
	if size <= 0 {
		return Box{}
	}
	cx := b.X + b.W/2
	cy := b.Y + b.H/2
	x := clamp(cx-size/2, 0, w-size)
	y := clamp(cy-size/2, 0, h-size)
	return Box{X: x, Y: y, W: size, H: size}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
