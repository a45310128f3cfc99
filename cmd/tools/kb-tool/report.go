package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"admissions-workers/internal/knowledge"
)

func reportCmd(dir *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize stories, faculty and facts and list interest coverage gaps",
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := knowledge.NewFileSource(*dir).Load(cmd.Context())
			if err != nil {
				return err
			}
			report := knowledge.Analyze(*kb, nil)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, r knowledge.Report) {
	fmt.Fprintln(w, "Knowledge base report")
	fmt.Fprintf(w, "  stories: %d  faculty: %d  facts: %d\n\n", r.TotalStories, r.TotalFaculty, r.TotalFacts)

	printCounts(w, "Stories by grade level", r.GradeDistribution)
	printCounts(w, "Top story interests", r.TopInterests)
	printCounts(w, "Faculty specializations", r.Specializations)
	printCounts(w, "Fact categories", r.FactCategories)

	fmt.Fprintln(w, "Quiz interest coverage")
	for _, c := range r.Coverage {
		fmt.Fprintf(w, "  %-12s %3d stories (%.1f%%)\n", c.Interest, c.Stories, c.Percent)
	}
	fmt.Fprintln(w)

	if len(r.Gaps) > 0 {
		fmt.Fprintln(w, "Gaps (fewer than 2 stories)")
		for _, g := range r.Gaps {
			fmt.Fprintf(w, "  - %s\n", g)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Data quality")
	fmt.Fprintf(w, "  stories without grade level:  %d\n", r.DataQuality.StoriesWithoutGradeLevel)
	fmt.Fprintf(w, "  stories without parent quote: %d\n", r.DataQuality.StoriesWithoutParentQuote)
	fmt.Fprintf(w, "  faculty without bio:          %d\n", r.DataQuality.FacultyWithoutBio)
}

func printCounts(w io.Writer, title string, counts []knowledge.Count) {
	fmt.Fprintln(w, title)
	for _, c := range counts {
		fmt.Fprintf(w, "  %-24s %d\n", c.Label, c.Count)
	}
	fmt.Fprintln(w)
}
