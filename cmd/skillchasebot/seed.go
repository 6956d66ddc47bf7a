package main

import (
	"github.com/KILLERTIAN/skillchaseBot/internal/logutil"
	"github.com/KILLERTIAN/skillchaseBot/internal/promptprofile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Print the conversation seed every model session starts with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			seed, err := promptprofile.LoadSeed(viper.GetString("prompt.seed_file"), logger)
			if err != nil {
				return err
			}
			raw, err := seed.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}
