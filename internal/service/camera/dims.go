package camera

import (
	"bytes"
	"fmt"
	"image/jpeg"
)

// JPEGDims reads the frame size from the JPEG headers without decoding pixels.
func JPEGDims(data []byte) (int, int, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("jpeg header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
