package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rzbill/rendezq/internal/search"
)

// NewSearchCommand constructs the `search` command, a local parallel text
// search over a directory tree.
func NewSearchCommand() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Count lines containing a string across files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, _ := cmd.Flags().GetString("root")
			text, _ := cmd.Flags().GetString("text")
			glob, _ := cmd.Flags().GetString("glob")
			workers, _ := cmd.Flags().GetInt("workers")
			quiet, _ := cmd.Flags().GetBool("quiet")

			enc := json.NewEncoder(cmd.OutOrStdout())
			opts := search.Options{Root: root, Text: text, Glob: glob, Workers: workers}
			if !quiet {
				opts.OnMatch = func(m search.Match) {
					_ = enc.Encode(map[string]any{"path": m.Path, "line": m.Line, "text": m.Text})
				}
			}
			res, err := search.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "files: %d lines: %d matches: %d\n", res.Files, res.Lines, res.Matches)
			return nil
		},
	}
	searchCmd.Flags().String("root", ".", "Directory to search")
	searchCmd.Flags().String("text", "", "Text to look for")
	searchCmd.Flags().String("glob", search.DefaultGlob, "File name pattern")
	searchCmd.Flags().Int("workers", 0, "Concurrent file scans (0 = GOMAXPROCS)")
	searchCmd.Flags().Bool("quiet", false, "Print only the summary")
	_ = searchCmd.MarkFlagRequired("text")
	return searchCmd
}
