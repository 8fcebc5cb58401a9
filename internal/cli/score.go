package cli

import (
	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Show the current streak and high score",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Score

			if err := client.Get("/api/v1/score", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
