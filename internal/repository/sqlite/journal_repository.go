package sqlite

import (
	"fmt"

	"beecam/internal/model"
)

// JournalRepository implements repository.JournalRepository for SQLite.
type JournalRepository struct {
	db *DB
}

// NewJournalRepository creates a new SQLite journal repository.
func NewJournalRepository(db *DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// InsertFrame adds a processed frame and returns its row id.
func (r *JournalRepository) InsertFrame(rec *model.FrameRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO frames (boot_id, frame, frame_path, bees, mites, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.BootID, rec.Frame, rec.FramePath, rec.Bees, rec.Mites, rec.Timestamp.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert frame: %w", err)
	}

	return result.LastInsertId()
}

// InsertCrops adds the crops of one frame in a single transaction.
func (r *JournalRepository) InsertCrops(crops []model.CropRecord) error {
	if len(crops) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO crops (frame_id, bbox_index, crop_path, overlay_path, mites)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range crops {
		if _, err := stmt.Exec(c.FrameID, c.BBoxIndex, c.CropPath, c.OverlayPath, c.Mites); err != nil {
			return fmt.Errorf("failed to insert crop: %w", err)
		}
	}

	return tx.Commit()
}

// FramesByBoot returns the newest frames of a boot, newest first. limit <= 0
// returns every frame.
func (r *JournalRepository) FramesByBoot(bootID uint32, limit int) ([]model.FrameRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Conn().Query(`
		SELECT id, boot_id, frame, frame_path, bees, mites, timestamp
		FROM frames WHERE boot_id = ?
		ORDER BY frame DESC LIMIT ?
	`, bootID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []model.FrameRecord
	for rows.Next() {
		var f model.FrameRecord
		if err := rows.Scan(&f.ID, &f.BootID, &f.Frame, &f.FramePath, &f.Bees, &f.Mites, &f.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		frames = append(frames, f)
	}

	return frames, rows.Err()
}

// CropsByFrame returns the crops recorded for a frame ordered by box index.
func (r *JournalRepository) CropsByFrame(frameID int64) ([]model.CropRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, frame_id, bbox_index, crop_path, overlay_path, mites
		FROM crops WHERE frame_id = ? ORDER BY bbox_index
	`, frameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crops: %w", err)
	}
	defer rows.Close()

	var crops []model.CropRecord
	for rows.Next() {
		var c model.CropRecord
		if err := rows.Scan(&c.ID, &c.FrameID, &c.BBoxIndex, &c.CropPath, &c.OverlayPath, &c.Mites); err != nil {
			return nil, fmt.Errorf("failed to scan crop: %w", err)
		}
		crops = append(crops, c)
	}

	return crops, rows.Err()
}

// Boots summarises every journaled boot, newest first.
func (r *JournalRepository) Boots() ([]model.BootSummary, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT boot_id, COUNT(*), COALESCE(SUM(bees), 0), COALESCE(SUM(mites), 0)
		FROM frames GROUP BY boot_id ORDER BY boot_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query boots: %w", err)
	}
	defer rows.Close()

	var boots []model.BootSummary
	for rows.Next() {
		var b model.BootSummary
		if err := rows.Scan(&b.BootID, &b.Frames, &b.Bees, &b.Mites); err != nil {
			return nil, fmt.Errorf("failed to scan boot: %w", err)
		}
		boots = append(boots, b)
	}

	return boots, rows.Err()
}

// DeleteBoot removes a boot and, through the cascade, its crops.
func (r *JournalRepository) DeleteBoot(bootID uint32) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM frames WHERE boot_id = ?`, bootID); err != nil {
		return fmt.Errorf("failed to delete boot: %w", err)
	}
	return nil
}
