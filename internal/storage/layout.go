package storage

import (
	"fmt"
	"path"

	"beecam/internal/model"
)

// Artifact roots on the storage filesystem.
const (
	FramesRoot      = "/frames"
	BeeOverlaysRoot = "/bee_overlays"
	CropsRoot       = "/crops"
	OverlaysRoot    = "/overlays"
	LogRoot         = "/logs"

	// BootIDPath stores the last issued boot id.
	BootIDPath = LogRoot + "/boot_id.txt"

	// SessionPrefix tags per-boot directories and logs.
	SessionPrefix = "boot_"

	MiteSubdir   = "mite"
	NoMiteSubdir = "no_mite"
)

// SessionName returns the directory name for a boot, e.g. boot_000042.
func SessionName(bootID uint32) string {
	return fmt.Sprintf("%s%06d", SessionPrefix, bootID)
}

// SessionLogPath returns the append log probed during boot id allocation.
func SessionLogPath(bootID uint32) string {
	return path.Join(LogRoot, SessionName(bootID)+".txt")
}

// FramePath is where the raw camera JPEG for a frame is kept.
func FramePath(bootID, frame uint32) string {
	return path.Join(FramesRoot, SessionName(bootID), fmt.Sprintf("%06d.jpg", frame))
}

// CentersPath holds the bee box centers for a frame.
func CentersPath(bootID, frame uint32) string {
	return path.Join(FramesRoot, SessionName(bootID), fmt.Sprintf("%06d.txt", frame))
}

// BeeOverlayPath is the full-frame overlay with every bee box drawn.
func BeeOverlayPath(bootID, frame uint32) string {
	return path.Join(BeeOverlaysRoot, SessionName(bootID), fmt.Sprintf("%06d.jpg", frame))
}

// CropPath is the crop cut around one bee box.
func CropPath(bootID, frame uint32, index int, label string) string {
	return path.Join(CropsRoot, SessionName(bootID), fmt.Sprintf("%06d_%02d_%s.jpg", frame, index, label))
}

// VarroaOverlayPath is a crop overlay filed under mite or no_mite.
func VarroaOverlayPath(bootID, frame uint32, index int, hasMite bool) string {
	sub := NoMiteSubdir
	if hasMite {
		sub = MiteSubdir
	}
	return path.Join(OverlaysRoot, SessionName(bootID), sub, fmt.Sprintf("%06d_%02d.jpg", frame, index))
}

// NewSession resolves every directory of a boot session.
func NewSession(bootID uint32) *model.Session {
	name := SessionName(bootID)
	overlays := path.Join(OverlaysRoot, name)
	return &model.Session{
		BootID:            bootID,
		FramesDir:         path.Join(FramesRoot, name),
		BeeOverlaysDir:    path.Join(BeeOverlaysRoot, name),
		CropsDir:          path.Join(CropsRoot, name),
		OverlaysDir:       overlays,
		OverlaysMiteDir:   path.Join(overlays, MiteSubdir),
		OverlaysNoMiteDir: path.Join(overlays, NoMiteSubdir),
		LogPath:           SessionLogPath(bootID),
	}
}
