package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arash-fz/docent/config"
	srv "github.com/arash-fz/docent/internal/server"
)

func askCMD() *cobra.Command {
	var cfgPath string
	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.General.RequestTimeout)
			defer cancel()

			deps, err := srv.BuildDeps(ctx, cfg)
			if err != nil {
				return err
			}

			result := deps.Pipeline.Answer(ctx, query)
			fmt.Printf("intent: %s  new_ingestion: %t\n\n%s\n", result.Intent, result.NewIngestion, result.Answer)
			return nil
		},
	}
	ask.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ., ./config)")

	return ask
}
