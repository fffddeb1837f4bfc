package journal

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beecam/internal/logger"
	"beecam/internal/model"
	"beecam/internal/repository/sqlite"
)

func newRepo(t *testing.T) *sqlite.JournalRepository {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewJournalRepository(db)
}

func frame(boot, n uint32, bees, mites int) model.FrameRecord {
	return model.FrameRecord{BootID: boot, Frame: n, Bees: bees, Mites: mites, Timestamp: time.Now()}
}

func TestBuffer_FlushAssignsFrameIDs(t *testing.T) {
	repo := newRepo(t)
	b := NewBuffer(repo, logger.New(io.Discard))

	b.Record(frame(1, 1, 2, 1), []model.CropRecord{
		{BBoxIndex: 0, CropPath: "/crops/boot_000001/000001_00_bee.jpg", Mites: 1},
		{BBoxIndex: 1, CropPath: "/crops/boot_000001/000001_01_bee.jpg"},
	})
	b.Record(frame(1, 2, 0, 0), nil)
	assert.Equal(t, 2, b.Pending())

	assert.Equal(t, 2, b.Flush())
	assert.Equal(t, 0, b.Pending())

	frames, err := repo.FramesByBoot(1, 10)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	var first model.FrameRecord
	for _, f := range frames {
		if f.Frame == 1 {
			first = f
		}
	}
	crops, err := repo.CropsByFrame(first.ID)
	require.NoError(t, err)
	require.Len(t, crops, 2)
	assert.Equal(t, first.ID, crops[1].FrameID)

	assert.Equal(t, 0, b.Flush())
}

func TestBuffer_DropsBeyondLimit(t *testing.T) {
	repo := newRepo(t)
	b := NewBuffer(repo, logger.New(io.Discard))

	for i := 0; i < BufferLimit+5; i++ {
		b.Record(frame(2, uint32(i+1), 1, 0), nil)
	}
	assert.Equal(t, BufferLimit, b.Pending())
	assert.Equal(t, BufferLimit, b.Flush())
}

func TestBuffer_DuplicateFrameSkipped(t *testing.T) {
	repo := newRepo(t)
	b := NewBuffer(repo, logger.New(io.Discard))

	b.Record(frame(3, 1, 1, 0), nil)
	b.Record(frame(3, 1, 1, 0), nil)
	assert.Equal(t, 1, b.Flush())
}

func TestBuffer_RunFlushesOnCancel(t *testing.T) {
	repo := newRepo(t)
	b := NewBuffer(repo, logger.New(io.Discard))
	b.Record(frame(4, 1, 3, 0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	boots, err := repo.Boots()
	require.NoError(t, err)
	require.Len(t, boots, 1)
	assert.Equal(t, 3, boots[0].Bees)
}
