package storage

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beecam/internal/logger"
	"beecam/internal/model"
)

func newStore(t *testing.T, fs afero.Fs, enabled bool, enc Encoder) (*FileStore, *bytes.Buffer) {
	t.Helper()
	var session bytes.Buffer
	log := logger.New(io.Discard)
	log.AttachSession(&session, func() bool { return true })
	return NewFileStore(fs, staticGate(enabled), enc, log), &session
}

func TestFileStore_SaveJPEGFrame(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/frames/boot_000003")
	store, session := newStore(t, fs, true, nil)

	p, ok := store.SaveJPEGFrame([]byte{0xFF, 0xD8, 0xFF, 0xD9}, 3, 9)

	require.True(t, ok)
	assert.Equal(t, "/frames/boot_000003/000009.jpg", p)
	data, err := afero.ReadFile(fs, p)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xD9}, data)
	assert.Equal(t, "SAVE_OK frame_jpeg path=/frames/boot_000003/000009.jpg bytes=4\n", session.String())
}

func TestFileStore_DisabledIsNoOp(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/frames/boot_000001", "/bee_overlays/boot_000001")
	writeFile(t, fs, "/bee_overlays/boot_000001/src.jpg", "data")
	enc := &fakeEncoder{body: []byte("jpeg")}
	store, _ := newStore(t, fs, false, enc)

	_, ok := store.SaveJPEGFrame([]byte("x"), 1, 1)
	assert.False(t, ok)
	assert.False(t, store.SaveEncodedImage(make([]byte, 12), 2, 2, 90, "/bee_overlays/boot_000001/a.jpg"))
	assert.False(t, store.SaveBytes([]byte("x"), "/frames/boot_000001/000001.txt", "centers"))
	assert.False(t, store.Copy("/bee_overlays/boot_000001/src.jpg", "/bee_overlays/boot_000001/dst.jpg"))

	assert.Empty(t, enc.calls, "encoder untouched")
	for _, p := range []string{
		"/frames/boot_000001/000001.jpg",
		"/bee_overlays/boot_000001/a.jpg",
		"/frames/boot_000001/000001.txt",
		"/bee_overlays/boot_000001/dst.jpg",
	} {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.False(t, ok, p)
	}
}

func TestFileStore_ShortWriteLeavesPartialFile(t *testing.T) {
	mem := afero.NewMemMapFs()
	mkdirs(t, mem, "/frames/boot_000002")
	store, session := newStore(t, shortWriteFs{mem}, true, nil)

	p, ok := store.SaveJPEGFrame([]byte("0123456789"), 2, 1)

	assert.False(t, ok)
	data, err := afero.ReadFile(mem, p)
	require.NoError(t, err, "partial file stays on disk")
	assert.Equal(t, "01234", string(data))
	assert.Contains(t, session.String(), "SAVE_FAIL frame_jpeg incomplete path=/frames/boot_000002/000001.jpg wrote=5 expected=10")
}

func TestFileStore_SaveJPEGFrame_MissingDir(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	store, session := newStore(t, fs, true, nil)

	_, ok := store.SaveJPEGFrame([]byte("x"), 1, 1)
	assert.False(t, ok)
	assert.Equal(t, "SAVE_FAIL frame_jpeg path=/frames/boot_000001/000001.jpg\n", session.String())
}

func TestFileStore_SaveEncodedImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/bee_overlays/boot_000001")
	enc := &fakeEncoder{body: []byte("encoded")}
	store, _ := newStore(t, fs, true, enc)

	rgb := make([]byte, 4*3*3)
	require.True(t, store.SaveEncodedImage(rgb, 4, 3, 90, "/bee_overlays/boot_000001/000001.jpg"))
	require.True(t, store.SaveEncodedImage(rgb, 4, 3, 90, "/bee_overlays/boot_000001/000001.BMP"))
	assert.Equal(t, []string{".jpg", ".bmp"}, enc.calls)

	data, err := afero.ReadFile(fs, "/bee_overlays/boot_000001/000001.jpg")
	require.NoError(t, err)
	assert.Equal(t, "encoded", string(data))
}

func TestFileStore_SaveEncodedImage_Rejects(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/bee_overlays/boot_000001")
	enc := &fakeEncoder{body: []byte("encoded")}
	store, _ := newStore(t, fs, true, enc)
	p := "/bee_overlays/boot_000001/x.jpg"

	assert.False(t, store.SaveEncodedImage(make([]byte, 12), 0, 2, 90, p))
	assert.False(t, store.SaveEncodedImage(make([]byte, 12), 2, -1, 90, p))
	assert.False(t, store.SaveEncodedImage(make([]byte, 11), 2, 2, 90, p), "buffer too short")
	assert.False(t, store.SaveEncodedImage(make([]byte, 12), 2, 2, 90, ""))
	assert.Empty(t, enc.calls)

	enc.err = errors.New("codec failure")
	assert.False(t, store.SaveEncodedImage(make([]byte, 12), 2, 2, 90, p))
	ok, err := afero.Exists(fs, p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_Copy(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/bee_overlays/boot_000001")
	payload := bytes.Repeat([]byte("0123456789abcdef"), 300)
	require.NoError(t, afero.WriteFile(fs, "/bee_overlays/boot_000001/src.jpg", payload, 0644))
	store, _ := newStore(t, fs, true, nil)

	require.True(t, store.Copy("/bee_overlays/boot_000001/src.jpg", "/bee_overlays/boot_000001/dst.jpg"))
	got, err := afero.ReadFile(fs, "/bee_overlays/boot_000001/dst.jpg")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	assert.False(t, store.Copy("/bee_overlays/boot_000001/none.jpg", "/bee_overlays/boot_000001/x.jpg"))
}

func TestFileStore_Copy_ShortWrite(t *testing.T) {
	mem := afero.NewMemMapFs()
	mkdirs(t, mem, "/bee_overlays/boot_000001")
	require.NoError(t, afero.WriteFile(mem, "/bee_overlays/boot_000001/src.jpg", bytes.Repeat([]byte("a"), 3000), 0644))
	store, _ := newStore(t, shortWriteFs{mem}, true, nil)

	assert.False(t, store.Copy("/bee_overlays/boot_000001/src.jpg", "/bee_overlays/boot_000001/dst.jpg"))

	got, err := afero.ReadFile(mem, "/bee_overlays/boot_000001/dst.jpg")
	require.NoError(t, err)
	assert.Less(t, len(got), 3000, "destination left truncated")
}

func TestCropLedger(t *testing.T) {
	ledger := NewCropLedger(3)
	for i := 0; i < 5; i++ {
		kept := ledger.Add(model.CropMeta{BBoxIndex: uint32(i), Path: CropPath(1, 1, i, "bee")})
		assert.Equal(t, i < 3, kept)
	}
	assert.Equal(t, 3, ledger.Len())

	p, ok := ledger.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, "/crops/boot_000001/000001_02_bee.jpg", p)
	_, ok = ledger.Lookup(4)
	assert.False(t, ok, "overflow entries are dropped")

	items := ledger.Items()
	items[0].Path = "mutated"
	assert.NotEqual(t, "mutated", ledger.Items()[0].Path)

	ledger.Reset()
	assert.Equal(t, 0, ledger.Len())
	assert.True(t, ledger.Add(model.CropMeta{BBoxIndex: 9}))
}
