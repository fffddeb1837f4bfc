package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"beecam/internal/dto"
	"beecam/internal/service/query"
)

// BootsCmd lists the sessions below a root.
func BootsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boots",
		Short: "List boot sessions below bee_overlays or overlays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, root, err := queryService(cmd)
			if err != nil {
				return err
			}
			fragments, err := svc.ListSessions(root)
			if err != nil {
				return err
			}

			var names []string
			if err := json.Unmarshal(readAll(fragments), &names); err != nil {
				return fmt.Errorf("decode listing: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			fmt.Fprintf(out, "%s\n", color.New(color.FgCyan).Sprintf("%d session(s) in %s", len(names), root.Base()))
			return nil
		},
	}
	cmd.Flags().String("in", string(query.RootBeeOverlays), "Listing root: bee_overlays (bee) or overlays")
	return cmd
}

// ImagesCmd lists the images of one session.
func ImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images <boot>",
		Short: "List the images of a boot session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, root, err := queryService(cmd)
			if err != nil {
				return err
			}
			sub, _ := cmd.Flags().GetString("sub")
			fragments, err := svc.ListImages(root, args[0], sub)
			if err != nil {
				return err
			}

			var entries []dto.ImageEntry
			if err := json.Unmarshal(readAll(fragments), &entries); err != nil {
				return fmt.Errorf("decode listing: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintln(out, e.Path)
			}
			fmt.Fprintf(out, "%s\n", color.New(color.FgCyan).Sprintf("%d image(s)", len(entries)))
			return nil
		},
	}
	cmd.Flags().String("in", string(query.RootBeeOverlays), "Listing root: bee_overlays (bee) or overlays")
	cmd.Flags().String("sub", "", "Overlay subvariant: mite or no_mite (overlays only)")
	return cmd
}

func queryService(cmd *cobra.Command) (*query.Service, query.Root, error) {
	fs, _, err := artifactFs(cmd)
	if err != nil {
		return nil, "", err
	}
	in, _ := cmd.Flags().GetString("in")
	root, err := query.ParseRoot(in)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", err, in)
	}
	return query.NewService(fs, cliLogger(cmd)), root, nil
}
