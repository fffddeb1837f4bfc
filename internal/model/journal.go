package model

import "time"

// FrameRecord is one processed frame in the detection journal.
type FrameRecord struct {
	ID        int64     `json:"id"`
	BootID    uint32    `json:"boot_id"`
	Frame     uint32    `json:"frame"`
	FramePath string    `json:"frame_path"`
	Bees      int       `json:"bees"`
	Mites     int       `json:"mites"`
	Timestamp time.Time `json:"timestamp"`
}

// CropRecord is one bee crop cut from a journaled frame.
type CropRecord struct {
	ID          int64  `json:"id"`
	FrameID     int64  `json:"frame_id"`
	BBoxIndex   uint32 `json:"bbox_index"`
	CropPath    string `json:"crop_path"`
	OverlayPath string `json:"overlay_path"`
	Mites       int    `json:"mites"`
}

// BootSummary aggregates the journal for one boot.
type BootSummary struct {
	BootID uint32 `json:"boot_id"`
	Frames int    `json:"frames"`
	Bees   int    `json:"bees"`
	Mites  int    `json:"mites"`
}
