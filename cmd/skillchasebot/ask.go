package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/KILLERTIAN/skillchaseBot/internal/configutil"
	"github.com/KILLERTIAN/skillchaseBot/internal/logutil"
	"github.com/KILLERTIAN/skillchaseBot/internal/responder"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask PROMPT...",
		Short: "Send one prompt to the model and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				return fmt.Errorf("prompt is required")
			}
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			r, err := responderFromViper(cmd.Context(), logger)
			if err != nil {
				return err
			}
			language := configutil.FlagOrViperString(cmd, "translate", "ask.translate")
			out := cmd.OutOrStdout()
			r.Respond(cmd.Context(), prompt, responder.ReplierFunc(func(_ context.Context, text string) error {
				_, err := fmt.Fprintln(out, text)
				return err
			}), strings.TrimSpace(language))
			return nil
		},
	}
	cmd.Flags().String("translate", "", "Translate the reply to this language.")
	return cmd
}
