package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltaic-labs/examdex/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "examdexd",
		Short: "Examdex daemon and CLI",
		Long:  "Examdex daemon for running the exam question API server and ingesting reference material",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
