package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"beecam/internal/geometry"
)

// LetterboxCmd prints the crop used to fit a camera frame onto the model input.
func LetterboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "letterbox <src_w> <src_h> <dst_w> <dst_h>",
		Short: "Show the centered crop that maps a frame onto a model input",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dims [4]int
			for i, a := range args {
				v, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				dims[i] = v
			}

			c := geometry.Letterbox(dims[0], dims[1], dims[2], dims[3])
			fmt.Fprintf(cmd.OutOrStdout(), "crop x=%d y=%d w=%d h=%d scale_x=%.4f scale_y=%.4f\n",
				c.X, c.Y, c.W, c.H, c.ScaleX, c.ScaleY)
			return nil
		},
	}
}
