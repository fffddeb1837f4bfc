package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"beecam/internal/repository/sqlite"
)

// JournalCmd prints the detection journal.
func JournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal [boot]",
		Short: "Show journaled detections per boot, or the frames of one boot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			db, err := sqlite.New(path)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := sqlite.NewJournalRepository(db)
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				boots, err := repo.Boots()
				if err != nil {
					return err
				}
				for _, b := range boots {
					pct := 0.0
					if b.Bees > 0 {
						pct = 100 * float64(b.Mites) / float64(b.Bees)
					}
					line := fmt.Sprintf("boot %06d  frames=%d bees=%d mites=%d (%.2f%%)", b.BootID, b.Frames, b.Bees, b.Mites, pct)
					if b.Mites > 0 {
						line = color.New(color.FgYellow).Sprint(line)
					}
					fmt.Fprintln(out, line)
				}
				return nil
			}

			boot, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("bad boot id %q", args[0])
			}
			if del, _ := cmd.Flags().GetBool("delete"); del {
				if err := repo.DeleteBoot(uint32(boot)); err != nil {
					status(out, false, "delete boot %d: %v", boot, err)
					return err
				}
				status(out, true, "deleted boot %d from journal", boot)
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			frames, err := repo.FramesByBoot(uint32(boot), limit)
			if err != nil {
				return err
			}
			for _, f := range frames {
				fmt.Fprintf(out, "%06d  %s  bees=%d mites=%d  %s\n",
					f.Frame, f.Timestamp.Local().Format("2006-01-02 15:04:05"), f.Bees, f.Mites, f.FramePath)
			}
			return nil
		},
	}

	def := os.Getenv("DB_PATH")
	if def == "" {
		def = "./data/journal.db"
	}
	cmd.Flags().String("db", def, "Journal database path")
	cmd.Flags().Int("limit", 50, "Maximum frames to show for one boot")
	cmd.Flags().Bool("delete", false, "Delete the journal rows of the given boot")
	return cmd
}
