package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arash-fz/docent/config"
	srv "github.com/arash-fz/docent/internal/server"
)

// syncCMD re-ingests every source recorded in provenance memory, for
// rebuilding the vector store after a wipe or a schema change.
func syncCMD() *cobra.Command {
	var cfgPath string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Re-ingest all provenance sources into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			deps, err := srv.BuildDeps(ctx, cfg)
			if err != nil {
				return err
			}

			sources, err := deps.Memory.Sources(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("found %d sources in memory\n", len(sources))

			i := 0
			var failed int
			for url, info := range sources {
				i++
				fmt.Printf("[%d/%d] ingesting %s\n", i, len(sources), url)
				if err := deps.Ingestor.Reingest(ctx, url, info.Type, info.Title); err != nil {
					failed++
					fmt.Printf("  failed: %v\n", err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources failed", failed, len(sources))
			}
			return nil
		},
	}
	sync.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ., ./config)")

	return sync
}
