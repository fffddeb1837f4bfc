// Package journal batches detection journal writes off the capture loop.
package journal

import (
	"context"
	"sync"
	"time"

	"beecam/internal/logger"
	"beecam/internal/model"
	"beecam/internal/repository"
)

const (
	// BufferLimit bounds the frames held between flushes. Further frames are dropped.
	BufferLimit = 64
	// FlushInterval is how often buffered frames are written out.
	FlushInterval = 5 * time.Second
)

type entry struct {
	frame model.FrameRecord
	crops []model.CropRecord
}

// Buffer keeps journaled frames in memory and periodically writes them to
// the repository.
type Buffer struct {
	repo    repository.JournalRepository
	logger  *logger.Logger
	mu      sync.Mutex
	entries []entry
	dropped int
}

// NewBuffer creates a Buffer writing to repo.
func NewBuffer(repo repository.JournalRepository, logger *logger.Logger) *Buffer {
	return &Buffer{
		repo:    repo,
		logger:  logger,
		entries: make([]entry, 0, BufferLimit),
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (b *Buffer) Run(ctx context.Context) error {
	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.Flush()
			return nil
		case <-ticker.C:
			b.Flush()
		}
	}
}

// Record queues a frame and its crops.
func (b *Buffer) Record(frame model.FrameRecord, crops []model.CropRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) >= BufferLimit {
		b.dropped++
		return
	}
	b.entries = append(b.entries, entry{frame: frame, crops: crops})
}

// Pending returns the number of queued frames.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Flush writes every queued frame and clears the buffer. It returns the
// number of frames written.
func (b *Buffer) Flush() int {
	b.mu.Lock()
	entries := b.entries
	dropped := b.dropped
	b.entries = make([]entry, 0, BufferLimit)
	b.dropped = 0
	b.mu.Unlock()

	if dropped > 0 {
		b.logger.Warning("Journal buffer full, dropped %d frame(s)", dropped)
	}
	if len(entries) == 0 {
		return 0
	}

	saved := 0
	for _, e := range entries {
		frame := e.frame
		frameID, err := b.repo.InsertFrame(&frame)
		if err != nil {
			b.logger.Error("Failed to journal frame %d of boot %d: %v", frame.Frame, frame.BootID, err)
			continue
		}

		for i := range e.crops {
			e.crops[i].FrameID = frameID
		}
		if err := b.repo.InsertCrops(e.crops); err != nil {
			b.logger.Error("Failed to journal crops of frame %d: %v", frame.Frame, err)
		}
		saved++
	}

	b.logger.Info("Journaled %d frame(s)", saved)
	return saved
}
