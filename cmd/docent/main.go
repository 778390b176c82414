package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "docent",
		Short: "Agentic RAG study assistant",
	}

	root.AddCommand(serveCMD(), askCMD(), syncCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
