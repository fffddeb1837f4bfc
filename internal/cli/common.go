// Package cli implements beectl, the operator tool for inspecting and
// maintaining an artifact root without the server running.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"beecam/internal/logger"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("OK")
	failMark = color.New(color.FgRed).Sprint("FAIL")
)

// RootCmd builds the beectl command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "beectl",
		Short: "beectl - inspect and maintain a beecam artifact root",
		Long: `beectl works directly on the artifact directory written by the beecam
server: allocate and scaffold boot sessions, list sessions and images, wipe
live directories, try letterbox geometry and read the detection journal.`,
		SilenceUsage: true,
	}

	def := os.Getenv("ARTIFACT_ROOT")
	if def == "" {
		def = "./sdcard"
	}
	root.PersistentFlags().String("root", def, "Artifact root directory")

	root.AddCommand(BootCmd())
	root.AddCommand(BootsCmd())
	root.AddCommand(ImagesCmd())
	root.AddCommand(WipeCmd())
	root.AddCommand(CopyCmd())
	root.AddCommand(LetterboxCmd())
	root.AddCommand(JournalCmd())
	return root
}

// artifactFs opens the --root directory as the storage filesystem.
func artifactFs(cmd *cobra.Command) (afero.Fs, string, error) {
	dir, _ := cmd.Flags().GetString("root")
	if dir == "" {
		return nil, "", fmt.Errorf("--root is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), dir), dir, nil
}

// cliLogger sends warnings and errors to stderr.
func cliLogger(cmd *cobra.Command) *logger.Logger {
	return logger.New(cmd.ErrOrStderr())
}

// readAll drains a fragment sequence.
func readAll(fragments iter.Seq[[]byte]) []byte {
	var buf bytes.Buffer
	for f := range fragments {
		buf.Write(f)
	}
	return buf.Bytes()
}

func status(w io.Writer, ok bool, format string, args ...any) {
	mark := okMark
	if !ok {
		mark = failMark
	}
	fmt.Fprintf(w, "%-4s %s\n", mark, fmt.Sprintf(format, args...))
}
