// cmd/tools/kb-tool/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "kb-tool",
		Short:         "Maintain the admissions knowledge base",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&dir, "dir", "d", "knowledge", "knowledge base directory")

	root.AddCommand(
		reportCmd(&dir),
		mergeAlumniCmd(&dir),
		validateCmd(&dir),
		migrateCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
