package main

import (
	"fmt"

	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/thumbnail"
	"github.com/spf13/cobra"
)

// NewThumbnailCmd creates the thumbnail command.
func NewThumbnailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thumbnail <screenshot-dir>",
		Short: "Rename screenshots and write dashboard thumbnails",
		Long: `Thumbnail renames every <scheme>---<site>_trial<N>.png screenshot of a
directory to <site>-<scheme>.png and writes <site>-<scheme>_thumb.png next to
it. Thumbnails are cropped from the top-left corner to the thumbnail aspect
ratio, scaled down and given a saw-tooth bottom edge.

Files with other names are skipped with a warning. Files already renamed by
an earlier run are left alone.

Examples:
  httpsdash thumbnail out/site_screenshots
  httpsdash thumbnail --width 100 --height 150 out/site_screenshots`,
		Args: cobra.ExactArgs(1),
		RunE: runThumbnailCmd,
	}

	cmd.Flags().Int("width", config.DefaultThumbnailWidth, "Thumbnail width in pixels")
	cmd.Flags().Int("height", config.DefaultThumbnailHeight, "Thumbnail height in pixels")

	return cmd
}

// runThumbnailCmd executes the thumbnail command.
func runThumbnailCmd(cmd *cobra.Command, args []string) error {
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return err
	}
	height, err := cmd.Flags().GetInt("height")
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidThumbnailSize)
	}

	logger, closeLog, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	result, err := thumbnail.New(
		thumbnail.WithSize(width, height),
		thumbnail.WithLogger(logger),
	).ProcessDir(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d thumbnails, skipped %d screenshots\n",
		len(result.Thumbnails), len(result.Skipped))
	return nil
}
