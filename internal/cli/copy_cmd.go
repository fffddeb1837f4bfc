package cli

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"beecam/internal/storage"
)

type writesOn struct{}

func (writesOn) WritesEnabled() bool { return true }

// CopyCmd duplicates one artifact inside the root, e.g. to keep a raw frame
// next to the overlays it produced.
func CopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Copy an artifact to another storage path",
		Long: `Copy one file inside the artifact root through the same bounded buffer
the server uses. Paths are storage paths such as /frames/boot_000001/000001.jpg.
A failed copy may leave a truncated destination behind.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, _, err := artifactFs(cmd)
			if err != nil {
				return err
			}
			src, dst := path.Clean("/"+args[0]), path.Clean("/"+args[1])
			if err := fs.MkdirAll(path.Dir(dst), 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", path.Dir(dst), err)
			}

			store := storage.NewFileStore(fs, writesOn{}, nil, cliLogger(cmd))
			ok := store.Copy(src, dst)
			status(cmd.OutOrStdout(), ok, "copy %s -> %s", src, dst)
			if !ok {
				return fmt.Errorf("copy %s failed", src)
			}
			return nil
		},
	}
}
