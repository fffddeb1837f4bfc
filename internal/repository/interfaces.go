package repository

import (
	"beecam/internal/model"
)

// JournalRepository records what the capture loop found in every frame.
type JournalRepository interface {
	// Create operations
	InsertFrame(rec *model.FrameRecord) (int64, error)
	InsertCrops(crops []model.CropRecord) error

	// Read operations
	FramesByBoot(bootID uint32, limit int) ([]model.FrameRecord, error)
	CropsByFrame(frameID int64) ([]model.CropRecord, error)
	Boots() ([]model.BootSummary, error)

	// Delete operations
	DeleteBoot(bootID uint32) error
}
