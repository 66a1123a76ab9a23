package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/CEA-LIST/sgntx/pkg/api"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded conversion runs or show one",
	Long: `List conversion runs recorded in the catalog, newest first, or show the
per-file results of a single run.

Examples:
  vcfbin runs --limit 5
  vcfbin runs 2ZbQhM7cB4GkTzwN2bLbhK4nR3x --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		cat, err := container.Catalog()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			return showRun(cat, args[0], asJSON, cmd.OutOrStdout())
		}
		return listRuns(cat, limit, asJSON, cmd.OutOrStdout())
	},
}

func listRuns(runs api.RunStore, limit int, asJSON bool, out io.Writer) error {
	list, err := runs.ListRuns(limit)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tMODE\tFILES\tFAILED\tRECORDS\tINPUT")
	for _, run := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID, run.StartedAt.Local().Format(time.DateTime), run.Mode,
			len(run.Files), run.Failed(), run.Records(), run.InputDir)
	}
	return tw.Flush()
}

func showRun(runs api.RunStore, rawID string, asJSON bool, out io.Writer) error {
	id, err := ksuid.Parse(rawID)
	if err != nil {
		return errors.Wrapf(err, "invalid run id %q", rawID)
	}
	run, err := runs.GetRun(id)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, run)
	}

	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Mode:     %s\n", run.Mode)
	fmt.Fprintf(out, "Input:    %s\n", run.InputDir)
	fmt.Fprintf(out, "Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt))
	fmt.Fprintf(out, "Files:    %d (%d failed)\n\n", len(run.Files), run.Failed())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tRECORDS\tBYTES\tDURATION\tERROR")
	for _, f := range run.Files {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", f.Source, f.Records, f.Bytes, f.Duration, f.Error)
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list, 0 = all")
	runsCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}
