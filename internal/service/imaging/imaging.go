// Package imaging wraps the OpenCV operations the capture loop needs:
// decoding camera JPEGs, letterbox resizing, cropping, overlays and encoding.
// Frames cross the package boundary as packed RGB so callers never own a Mat.
package imaging

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"beecam/internal/geometry"
	"beecam/internal/model"
)

var (
	beeColor    = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	miteColor   = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	noMiteColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// Imager implements the frame operations on top of gocv.
type Imager struct{}

// NewImager creates an Imager.
func NewImager() *Imager {
	return &Imager{}
}

// Decode turns a JPEG into an RGB frame.
func (Imager) Decode(data []byte) (model.Frame, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return model.Frame{}, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return model.Frame{}, fmt.Errorf("decoded image is empty")
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB); err != nil {
		return model.Frame{}, fmt.Errorf("failed to convert to RGB: %v", err)
	}
	return toFrame(rgb), nil
}

// Resize cuts region out of frame and scales it to w x h.
func (Imager) Resize(frame model.Frame, region geometry.Box, w, h int) (model.Frame, error) {
	mat, err := fromFrame(frame)
	if err != nil {
		return model.Frame{}, err
	}
	defer mat.Close()

	roi := mat.Region(image.Rect(region.X, region.Y, region.X+region.W, region.Y+region.H))
	defer roi.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(roi, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
	return toFrame(dst), nil
}

// Crop copies region out of frame without scaling.
func (Imager) Crop(frame model.Frame, region geometry.Box) (model.Frame, error) {
	mat, err := fromFrame(frame)
	if err != nil {
		return model.Frame{}, err
	}
	defer mat.Close()

	roi := mat.Region(image.Rect(region.X, region.Y, region.X+region.W, region.Y+region.H))
	defer roi.Close()
	clone := roi.Clone()
	defer clone.Close()
	return toFrame(clone), nil
}

// Overlay draws boxes on a copy of frame. mite selects the red palette,
// otherwise green; bee overlays pass bees=true and are drawn in yellow.
func (Imager) Overlay(frame model.Frame, boxes []model.BoundingBox, bees, mite bool) (model.Frame, error) {
	src, err := fromFrame(frame)
	if err != nil {
		return model.Frame{}, err
	}
	defer src.Close()
	mat := src.Clone()
	defer mat.Close()

	c := noMiteColor
	switch {
	case bees:
		c = beeColor
	case mite:
		c = miteColor
	}
	for _, b := range boxes {
		rect := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
		if err := gocv.Rectangle(&mat, rect, c, 2); err != nil {
			return model.Frame{}, fmt.Errorf("failed to draw rectangle: %v", err)
		}
	}
	return toFrame(mat), nil
}

// Encoder encodes packed RGB buffers as JPEG or BMP.
type Encoder struct{}

// Encode implements storage.Encoder.
func (Encoder) Encode(rgb []byte, width, height, quality int, ext string) ([]byte, error) {
	mat, err := fromFrame(model.Frame{Pix: rgb, Width: width, Height: height})
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	if err := gocv.CvtColor(mat, &bgr, gocv.ColorRGBToBGR); err != nil {
		return nil, fmt.Errorf("failed to convert to BGR: %v", err)
	}

	var buf *gocv.NativeByteBuffer
	if ext == ".bmp" {
		buf, err = gocv.IMEncode(gocv.FileExt(ext), bgr)
	} else {
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, bgr, []int{gocv.IMWriteJpegQuality, quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func fromFrame(f model.Frame) (gocv.Mat, error) {
	if !f.Valid() {
		return gocv.Mat{}, fmt.Errorf("invalid frame %dx%d (%d bytes)", f.Width, f.Height, len(f.Pix))
	}
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix[:f.Width*f.Height*3])
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to wrap frame: %v", err)
	}
	return mat, nil
}

func toFrame(mat gocv.Mat) model.Frame {
	return model.Frame{Pix: mat.ToBytes(), Width: mat.Cols(), Height: mat.Rows()}
}
