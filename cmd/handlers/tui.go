package handlers

import (
	"github.com/spf13/cobra"

	"trendbrief/internal/config"
	"trendbrief/internal/render"
	"trendbrief/internal/tui"
)

// NewTUICmd creates the TUI command
func NewTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [digest.json]",
		Short: "Browse a digest in the terminal",
		Long:  `Open the interactive browser over a written digest. Same as 'digest show --tui'.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Get().Digest.Output
			if len(args) == 1 {
				path = args[0]
			}
			d, err := render.ReadDigest(path)
			if err != nil {
				return err
			}
			return tui.StartTUI(d)
		},
	}
}
