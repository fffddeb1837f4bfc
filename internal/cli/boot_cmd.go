package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"beecam/internal/storage"
)

// BootCmd allocates a boot id and scaffolds its session like the server does at start.
func BootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Allocate a boot id and scaffold its session directories",
		Long: `Allocate the next boot id and create its session tree. The live
directories (frames, crops) are wiped first, exactly as on server start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dir, err := artifactFs(cmd)
			if err != nil {
				return err
			}
			log := cliLogger(cmd)
			tree := storage.NewTree(fs, log)
			scaffolder := storage.NewScaffolder(fs, tree, storage.NewAllocator(fs, tree, log), log)

			session, logFile, err := scaffolder.Scaffold()
			if err != nil {
				status(cmd.OutOrStdout(), false, "scaffold %s: %v", dir, err)
				return err
			}
			defer logFile.Close()

			out := cmd.OutOrStdout()
			status(out, true, "boot %d", session.BootID)
			for _, d := range []string{session.FramesDir, session.BeeOverlaysDir, session.CropsDir, session.OverlaysMiteDir, session.OverlaysNoMiteDir} {
				fmt.Fprintf(out, "     %s\n", d)
			}
			fmt.Fprintf(out, "     log %s\n", session.LogPath)
			return nil
		},
	}
}

// WipeCmd clears the contents of one storage directory.
func WipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wipe <dir>...",
		Short: "Remove everything below the given storage directories",
		Long: `Remove everything below each directory, keeping the directory itself.
Directories are storage paths such as /frames or /crops. Without arguments
the live roots are wiped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, _, err := artifactFs(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = storage.LiveRoots
			}

			tree := storage.NewTree(fs, cliLogger(cmd))
			failed := 0
			for _, dir := range args {
				ok := tree.WipeContents(dir)
				status(cmd.OutOrStdout(), ok, "wipe %s", dir)
				if !ok {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d wipes failed", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}
