package storage

import (
	"io"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"beecam/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard)
}

type staticGate bool

func (g staticGate) WritesEnabled() bool { return bool(g) }

func mkdirs(t *testing.T, fs afero.Fs, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, fs.MkdirAll(d, 0755))
	}
}

func writeFile(t *testing.T, fs afero.Fs, p, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0644))
}

// shortWriteFs hands out files that only accept half of every write.
type shortWriteFs struct {
	afero.Fs
}

func (fs shortWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &shortFile{File: f}, nil
}

type shortFile struct {
	afero.File
}

func (f *shortFile) Write(p []byte) (int, error) {
	n, _ := f.File.Write(p[:len(p)/2])
	return n, io.ErrShortWrite
}

type fakeEncoder struct {
	calls []string
	body  []byte
	err   error
}

func (e *fakeEncoder) Encode(rgb []byte, width, height, quality int, ext string) ([]byte, error) {
	e.calls = append(e.calls, ext)
	if e.err != nil {
		return nil, e.err
	}
	return e.body, nil
}
