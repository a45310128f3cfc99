package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"admissions-workers/internal/knowledge"
)

func mergeAlumniCmd(dir *string) *cobra.Command {
	var exportPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "merge-alumni",
		Short: "Merge an alumni relations export into alumni.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := knowledge.ReadAlumniExport(exportPath)
			if err != nil {
				return err
			}

			target := filepath.Join(*dir, knowledge.CollectionAlumni+".json")
			existing, err := knowledge.ReadStories(target)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			merged, added, skipped := knowledge.MergeAlumni(existing, *export)
			fmt.Fprintf(cmd.OutOrStdout(), "alumni: %d existing, %d added, %d skipped as duplicates\n", len(existing), added, skipped)
			if dryRun || added == 0 {
				return nil
			}
			if err := knowledge.WriteStories(target, merged); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d stories to %s\n", len(merged), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&exportPath, "export", "e", "", "alumni export JSON file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report counts without writing")
	_ = cmd.MarkFlagRequired("export")
	return cmd
}
