// Package query answers the read-only questions a remote viewer asks about
// the artifact tree: which sessions exist, which images a session holds, and
// the bytes of one image.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"beecam/internal/dto"
	"beecam/internal/logger"
	"beecam/internal/pathguard"
	"beecam/internal/storage"
)

const (
	// ReadBatch is how many directory entries are pulled per Readdir call.
	ReadBatch = 32
	// BlockSize is the file streaming block.
	BlockSize = 8 * 1024
)

var (
	ErrBadRoot   = errors.New("bad root")
	ErrBadParam  = errors.New("bad parameter")
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")
)

// Root is one of the logical roots a client may list.
type Root string

const (
	RootBeeOverlays Root = "bee_overlays"
	RootOverlays    Root = "overlays"
)

var rootAliases = map[string]Root{
	"bee":          RootBeeOverlays,
	"bee_overlays": RootBeeOverlays,
	"overlays":     RootOverlays,
}

// ParseRoot maps a client supplied root name onto a Root.
func ParseRoot(s string) (Root, error) {
	root, ok := rootAliases[s]
	if !ok {
		return "", ErrBadRoot
	}
	return root, nil
}

// Base returns the storage directory behind the root.
func (r Root) Base() string {
	if r == RootOverlays {
		return storage.OverlaysRoot
	}
	return storage.BeeOverlaysRoot
}

var imageExts = []string{".bmp", ".jpg", ".jpeg", ".png"}

var contentTypes = map[string]string{
	".bmp":  "image/bmp",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// IsImage reports whether name carries an allowed image extension.
func IsImage(name string) bool {
	return lo.Contains(imageExts, strings.ToLower(path.Ext(name)))
}

// ContentType derives the MIME type from the file extension.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Service produces listings and file streams over the artifact filesystem.
type Service struct {
	fs     afero.Fs
	logger *logger.Logger
	batch  int
}

// NewService creates a Service.
func NewService(fs afero.Fs, logger *logger.Logger) *Service {
	return &Service{fs: fs, logger: logger, batch: ReadBatch}
}

// ListSessions lists the boot_ folders below root as a JSON array of strings.
func (s *Service) ListSessions(root Root) (iter.Seq[[]byte], error) {
	return s.listing(root.Base(), func(info os.FileInfo) any {
		if !info.IsDir() || !strings.HasPrefix(info.Name(), storage.SessionPrefix) {
			return nil
		}
		return info.Name()
	})
}

// ListImages lists the image files of one session as a JSON array of
// {name, path} objects. For the overlays root sub selects mite or no_mite,
// defaulting to mite.
func (s *Service) ListImages(root Root, boot, sub string) (iter.Seq[[]byte], error) {
	if boot == "" || strings.ContainsAny(boot, "/\\") || strings.Contains(boot, "..") {
		return nil, fmt.Errorf("%w: boot %q", ErrBadParam, boot)
	}

	dir := path.Join(root.Base(), boot)
	if root == RootOverlays {
		switch sub {
		case "":
			sub = storage.MiteSubdir
		case storage.MiteSubdir, storage.NoMiteSubdir:
		default:
			return nil, fmt.Errorf("%w: sub %q", ErrBadParam, sub)
		}
		dir = path.Join(dir, sub)
	}

	return s.listing(dir, func(info os.FileInfo) any {
		if info.IsDir() || !IsImage(info.Name()) {
			return nil
		}
		return dto.ImageEntry{Name: info.Name(), Path: dir + "/" + info.Name()}
	})
}

// listing checks dir up front so that failures can still become a status
// code, then returns a sequence that opens dir and walks it batch by batch.
// A missing directory lists as [].
func (s *Service) listing(dir string, pick func(os.FileInfo) any) (iter.Seq[[]byte], error) {
	info, err := s.fs.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return emptyArray(), nil
	case err != nil:
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var used atomic.Bool
	return func(yield func([]byte) bool) {
		if used.Swap(true) {
			return
		}
		if !yield([]byte("[")) {
			return
		}
		if !s.walk(dir, pick, yield) {
			return
		}
		yield([]byte("]"))
	}, nil
}

// walk yields one fragment per picked entry. It returns false once the
// consumer stopped.
func (s *Service) walk(dir string, pick func(os.FileInfo) any, yield func([]byte) bool) bool {
	f, err := s.fs.Open(dir)
	if err != nil {
		s.logger.Warning("Listing %s vanished: %v", dir, err)
		return true
	}
	defer f.Close()

	first := true
	for {
		infos, err := f.Readdir(s.batch)
		for _, info := range infos {
			item := pick(info)
			if item == nil {
				continue
			}
			raw, merr := json.Marshal(item)
			if merr != nil {
				continue
			}
			if !first {
				raw = append([]byte(","), raw...)
			}
			first = false
			if !yield(raw) {
				return false
			}
		}
		if err == io.EOF || len(infos) == 0 {
			return true
		}
		if err != nil {
			s.logger.Warning("Listing %s stopped early: %v", dir, err)
			return true
		}
	}
}

func emptyArray() iter.Seq[[]byte] {
	var used atomic.Bool
	return func(yield func([]byte) bool) {
		if used.Swap(true) {
			return
		}
		yield([]byte("[]"))
	}
}

// File is an opened artifact ready to be streamed.
type File struct {
	Name        string
	Size        int64
	ContentType string

	r afero.File
}

// OpenFile resolves a client path. Paths outside the overlay roots are
// ErrForbidden; missing files and directories are ErrNotFound.
func (s *Service) OpenFile(p string) (*File, error) {
	p = pathguard.Normalize(p)
	if !pathguard.IsSafe(p) {
		return nil, ErrForbidden
	}

	f, err := s.fs.Open(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}

	return &File{
		Name:        path.Base(p),
		Size:        info.Size(),
		ContentType: ContentType(p),
		r:           f,
	}, nil
}

// StreamTo copies the file to w in BlockSize blocks. It stops at the first
// failed or short write and returns what was delivered.
func (f *File) StreamTo(w io.Writer) (int64, error) {
	buf := make([]byte, BlockSize)
	var total int64
	for {
		n, rerr := f.r.Read(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			if written != n {
				return total, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// Close releases the underlying file.
func (f *File) Close() error {
	return f.r.Close()
}
