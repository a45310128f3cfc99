package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"admissions-workers/internal/knowledge"
)

// optional collections may be absent from the directory.
var collections = []struct {
	name     string
	optional bool
}{
	{knowledge.CollectionStories, false},
	{knowledge.CollectionAlumni, true},
	{knowledge.CollectionFaculty, false},
	{knowledge.CollectionFacts, false},
}

func validateCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Schema-check every knowledge base file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0

			for _, c := range collections {
				path := filepath.Join(*dir, c.name+".json")
				result, err := knowledge.ValidateFile(path, c.name)
				switch {
				case errors.Is(err, fs.ErrNotExist) && c.optional:
					fmt.Fprintf(out, "SKIP %s (not present)\n", path)
					continue
				case err != nil:
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					failed++
					continue
				case !result.Valid:
					fmt.Fprintf(out, "FAIL %s: %s\n", path, result.Error())
					failed++
					continue
				}
				fmt.Fprintf(out, "OK   %s\n", path)
			}

			if failed > 0 {
				return fmt.Errorf("%d knowledge file(s) failed validation", failed)
			}
			return nil
		},
	}
}
