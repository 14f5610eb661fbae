package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trendbrief/internal/config"
	"trendbrief/internal/render"
	"trendbrief/internal/tui"
)

// NewDigestShowCmd creates the digest show command
func NewDigestShowCmd() *cobra.Command {
	var (
		format string
		useTUI bool
	)

	cmd := &cobra.Command{
		Use:   "show [digest.json]",
		Short: "Display a written digest",
		Long: `Show a digest written by 'trendbrief digest run'.

Examples:
  # Show the digest at the configured output path
  trendbrief digest show

  # Show an archived digest as markdown
  trendbrief digest show digest_archive/2025-03-01/evening.json --format markdown

  # Browse stories and their appearances interactively
  trendbrief digest show digest.json --tui`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Get().Digest.Output
			if len(args) == 1 {
				path = args[0]
			}
			return runDigestShow(path, format, useTUI)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, markdown)")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "open the interactive browser")

	return cmd
}

func runDigestShow(path, format string, useTUI bool) error {
	d, err := render.ReadDigest(path)
	if err != nil {
		return err
	}

	if useTUI {
		return tui.StartTUI(d)
	}

	switch format {
	case "json":
		data, err := render.Marshal(d)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	case "markdown", "md":
		fmt.Print(render.Markdown(d))
	case "text", "":
		fmt.Print(render.Text(d))
	default:
		return fmt.Errorf("unknown format %q (text, json, markdown)", format)
	}
	return nil
}
