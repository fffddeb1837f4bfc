package storage

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"beecam/internal/logger"
)

// Allocator issues boot ids. The counter file is only a hint: an id is
// considered taken as soon as its session log exists, so ids stay unique even
// when the counter write was lost.
type Allocator struct {
	fs     afero.Fs
	tree   *Tree
	logger *logger.Logger
}

// NewAllocator creates an Allocator.
func NewAllocator(fs afero.Fs, tree *Tree, logger *logger.Logger) *Allocator {
	return &Allocator{fs: fs, tree: tree, logger: logger}
}

// Allocate returns the next free boot id and records it in the counter file.
func (a *Allocator) Allocate() uint32 {
	candidate := uint32(math.MaxUint32)
	if stored := readCounter(a.fs, BootIDPath); stored < math.MaxUint32 {
		candidate = stored + 1
	}
	a.tree.Ensure(LogRoot)

	for a.tree.Exists(SessionLogPath(candidate)) {
		if candidate == math.MaxUint32 {
			a.logger.Warning("Boot id space exhausted, reusing %d", candidate)
			break
		}
		candidate++
	}

	if err := writeCounter(a.fs, BootIDPath, candidate); err != nil {
		a.logger.Warning("Could not persist boot id %d: %v", candidate, err)
	}
	return candidate
}

// readCounter returns the stored counter, or 0 when the file is missing,
// empty or not a number.
func readCounter(fs afero.Fs, p string) uint32 {
	f, err := fs.Open(p)
	if err != nil {
		return 0
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return 0
	}
	v, err := strconv.ParseUint(strings.TrimSpace(line), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

func writeCounter(fs afero.Fs, p string, v uint32) error {
	f, err := fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "%d\n", v); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
