package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"beecam/internal/logger"
	"beecam/internal/model"
)

// LiveRoots are wiped at every boot; the overlay roots keep older sessions.
var LiveRoots = []string{FramesRoot, CropsRoot}

// Scaffolder prepares the storage tree for a new boot session.
type Scaffolder struct {
	fs        afero.Fs
	tree      *Tree
	allocator *Allocator
	logger    *logger.Logger
	now       func() time.Time
}

// NewScaffolder creates a Scaffolder.
func NewScaffolder(fs afero.Fs, tree *Tree, allocator *Allocator, logger *logger.Logger) *Scaffolder {
	return &Scaffolder{fs: fs, tree: tree, allocator: allocator, logger: logger, now: time.Now}
}

// Scaffold ensures the artifact roots, wipes the live roots, allocates a boot
// id, creates the session directories and opens the session log with its
// header written. Any failure aborts the whole setup; the caller must then
// treat storage as unavailable for this boot.
func (s *Scaffolder) Scaffold() (*model.Session, afero.File, error) {
	for _, root := range []string{FramesRoot, BeeOverlaysRoot, CropsRoot, OverlaysRoot, LogRoot} {
		if !s.tree.Ensure(root) {
			return nil, nil, fmt.Errorf("failed to ensure %s", root)
		}
	}
	for _, root := range LiveRoots {
		if !s.tree.WipeContents(root) {
			return nil, nil, fmt.Errorf("failed to wipe %s", root)
		}
	}

	session := NewSession(s.allocator.Allocate())

	dirs := []string{
		session.FramesDir,
		session.BeeOverlaysDir,
		session.CropsDir,
		session.OverlaysDir,
		session.OverlaysMiteDir,
		session.OverlaysNoMiteDir,
	}
	for _, dir := range dirs {
		if !s.tree.Ensure(dir) {
			return nil, nil, fmt.Errorf("failed to ensure %s", dir)
		}
	}

	logFile, err := s.fs.OpenFile(session.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session log: %w", err)
	}
	if err := writeSessionHeader(logFile, session, s.now()); err != nil {
		logFile.Close()
		return nil, nil, fmt.Errorf("failed to write session log header: %w", err)
	}

	s.logger.Info("Boot session %d ready (log %s)", session.BootID, session.LogPath)
	return session, logFile, nil
}

func writeSessionHeader(f afero.File, s *model.Session, now time.Time) error {
	header := fmt.Sprintf("=== BOOT %d === started=%s ===\n", s.BootID, now.Format(time.RFC3339))
	header += fmt.Sprintf("DIR frames=%s\nDIR bee_overlays=%s\nDIR crops=%s\nDIR overlays=%s\n",
		s.FramesDir, s.BeeOverlaysDir, s.CropsDir, s.OverlaysDir)
	header += fmt.Sprintf("DIR overlays/mite=%s\nDIR overlays/no_mite=%s\n",
		s.OverlaysMiteDir, s.OverlaysNoMiteDir)

	if _, err := f.WriteString(header); err != nil {
		return err
	}
	return f.Sync()
}
