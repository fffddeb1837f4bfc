package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"beecam/internal/logger"
)

// copyBufferSize bounds the memory used by Copy regardless of file size.
const copyBufferSize = 1024

// Encoder turns a packed RGB buffer into an image file body. ext selects the
// container (".jpg" or ".bmp").
type Encoder interface {
	Encode(rgb []byte, width, height, quality int, ext string) ([]byte, error)
}

// WriteGate reports whether writes are currently allowed.
type WriteGate interface {
	WritesEnabled() bool
}

// FileStore writes capture artifacts. Every write is a single
// open/write/close; a failed write may leave a partial file behind.
type FileStore struct {
	fs      afero.Fs
	gate    WriteGate
	encoder Encoder
	logger  *logger.Logger
}

// NewFileStore creates a FileStore.
func NewFileStore(fs afero.Fs, gate WriteGate, encoder Encoder, logger *logger.Logger) *FileStore {
	return &FileStore{fs: fs, gate: gate, encoder: encoder, logger: logger}
}

// SaveJPEGFrame stores a camera JPEG as frame frameCounter of boot bootID.
// It returns the target path even when the save failed.
func (s *FileStore) SaveJPEGFrame(data []byte, bootID, frameCounter uint32) (string, bool) {
	p := FramePath(bootID, frameCounter)
	if !s.gate.WritesEnabled() || len(data) == 0 {
		return p, false
	}

	n, err := s.writeFile(p, data)
	if err != nil {
		if n == 0 {
			s.logger.Session("SAVE_FAIL frame_jpeg path=%s\n", p)
		} else {
			s.logger.Session("SAVE_FAIL frame_jpeg incomplete path=%s wrote=%d expected=%d\n", p, n, len(data))
		}
		s.logger.Error("Failed to save frame %s: %v", p, err)
		return p, false
	}

	s.logger.Session("SAVE_OK frame_jpeg path=%s bytes=%d\n", p, len(data))
	return p, true
}

// SaveEncodedImage encodes rgb (width*height*3 bytes) and writes it to p. The
// container follows the extension of p; anything but .bmp is written as JPEG.
func (s *FileStore) SaveEncodedImage(rgb []byte, width, height, quality int, p string) bool {
	if !s.gate.WritesEnabled() || p == "" || width <= 0 || height <= 0 || len(rgb) < width*height*3 {
		return false
	}

	ext := ".jpg"
	if strings.EqualFold(path.Ext(p), ".bmp") {
		ext = ".bmp"
	}
	body, err := s.encoder.Encode(rgb, width, height, quality, ext)
	if err != nil || len(body) == 0 {
		s.logger.Session("SAVE_FAIL encode path=%s\n", p)
		s.logger.Error("Failed to encode %s: %v", p, err)
		return false
	}

	return s.SaveBytes(body, p, "image")
}

// SaveBytes writes an already encoded body to p.
func (s *FileStore) SaveBytes(body []byte, p, kind string) bool {
	if !s.gate.WritesEnabled() || p == "" {
		return false
	}

	n, err := s.writeFile(p, body)
	if err != nil {
		s.logger.Session("SAVE_FAIL %s path=%s wrote=%d expected=%d\n", kind, p, n, len(body))
		s.logger.Error("Failed to save %s: %v", p, err)
		return false
	}
	s.logger.Session("SAVE_OK %s path=%s bytes=%d\n", kind, p, n)
	return true
}

// Copy streams src into dst through a fixed buffer. On a short write the
// destination is left truncated and false is returned.
func (s *FileStore) Copy(src, dst string) bool {
	if !s.gate.WritesEnabled() || src == "" || dst == "" {
		return false
	}

	in, err := s.fs.Open(src)
	if err != nil {
		return false
	}
	defer in.Close()

	out, err := s.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return false
	}
	defer out.Close()

	buf := make([]byte, copyBufferSize)
	for {
		r, rerr := in.Read(buf)
		if r > 0 {
			w, werr := out.Write(buf[:r])
			if werr != nil || w != r {
				s.logger.Error("Copy %s -> %s stopped after short write", src, dst)
				return false
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			s.logger.Error("Copy %s -> %s read failed: %v", src, dst, rerr)
			return false
		}
	}

	if err := out.Sync(); err != nil {
		return false
	}
	return true
}

// writeFile performs the single open/write/close sequence used by every save.
// It returns the number of bytes written even on failure.
func (s *FileStore) writeFile(p string, data []byte) (int, error) {
	f, err := s.fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}

	n, werr := f.Write(data)
	if werr == nil && n != len(data) {
		werr = io.ErrShortWrite
	}
	serr := f.Sync()
	cerr := f.Close()

	switch {
	case werr != nil:
		return n, fmt.Errorf("write: %w", werr)
	case serr != nil:
		return n, fmt.Errorf("sync: %w", serr)
	case cerr != nil:
		return n, fmt.Errorf("close: %w", cerr)
	}
	return n, nil
}
