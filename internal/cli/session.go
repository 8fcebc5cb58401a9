package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Play-through commands",
	}

	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionGuessCmd())
	cmd.AddCommand(newSessionAbandonCmd())
	cmd.AddCommand(newSessionHistoryCmd())

	return cmd
}

func newSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new play-through",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Post("/api/v1/session", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the current pair and score",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Get("/api/v1/session", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionGuessCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "guess <before|after>",
		Short:     "Guess whether the current item came before or after the reference",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"before", "after"},
		RunE: func(cmd *cobra.Command, args []string) error {
			guess := strings.ToLower(args[0])
			if guess != "before" && guess != "after" {
				return fmt.Errorf("guess must be 'before' or 'after', got %q", args[0])
			}

			req := map[string]string{"guess": guess}
			var result GuessResult

			if err := client.Post("/api/v1/session/guess", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Abandon the current play-through",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Delete("/api/v1/session", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent guesses from this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/session/guesses"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}

			var result GuessHistory
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of guesses to show")

	return cmd
}
