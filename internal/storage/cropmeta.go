package storage

import (
	"sync"

	"beecam/internal/model"
)

// MaxCrops bounds the crops remembered per detection round.
const MaxCrops = 50

// CropLedger remembers which crop file belongs to which bounding box in the
// current round. Entries beyond its capacity are dropped.
type CropLedger struct {
	mu    sync.Mutex
	items []model.CropMeta
	limit int
}

// NewCropLedger creates a ledger holding at most limit entries.
func NewCropLedger(limit int) *CropLedger {
	return &CropLedger{items: make([]model.CropMeta, 0, limit), limit: limit}
}

// Add records meta and reports whether it was kept.
func (l *CropLedger) Add(meta model.CropMeta) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) >= l.limit {
		return false
	}
	l.items = append(l.items, meta)
	return true
}

// Reset forgets every entry.
func (l *CropLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = l.items[:0]
}

// Len returns the number of entries.
func (l *CropLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns a copy of the entries.
func (l *CropLedger) Items() []model.CropMeta {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.CropMeta, len(l.items))
	copy(out, l.items)
	return out
}

// Lookup returns the crop path recorded for a bounding box.
func (l *CropLedger) Lookup(bboxIndex uint32) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range l.items {
		if item.BBoxIndex == bboxIndex {
			return item.Path, true
		}
	}
	return "", false
}
