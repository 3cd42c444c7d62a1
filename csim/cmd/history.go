package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var historyCmd = &cobra.Command{
	Use:   "history <database>",
	Short: "List the runs recorded in a database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true
		q := datarecording.RunQuery{}
		q.Limit, _ = cmd.Flags().GetInt("limit")
		q.Offset, _ = cmd.Flags().GetInt("offset")
		q.TraceFile, _ = cmd.Flags().GetString("trace")

		err := printHistory(cmd.Context(), cmd.OutOrStdout(), args[0], q)
		if err != nil {
			atexit.Fatalf("history: %v", err)
		}
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of runs to list, 0 for all")
	historyCmd.Flags().Int("offset", 0, "number of newest runs to skip")
	historyCmd.Flags().StringP("trace", "t", "", "only list the runs of this trace file")
	rootCmd.AddCommand(historyCmd)
}

func printHistory(
	ctx context.Context,
	out io.Writer,
	path string,
	q datarecording.RunQuery,
) error {
	reader, err := datarecording.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	runs, total, err := datarecording.ReadRuns(ctx, reader, q)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTART\tTRACE\tS\tE\tB\tHITS\tMISSES\tEVICTIONS")

	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.RunID, r.StartTime, r.TraceFile,
			r.SetBits, r.Associativity, r.BlockBits,
			r.Hits, r.Misses, r.Evictions)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if len(runs) < total {
		fmt.Fprintf(out, "%d of %d runs shown\n", len(runs), total)
	}

	return nil
}
