// Package report writes the final counters of a simulation in the formats
// graders expect.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/cachesim/cache"
)

// DefaultResultsFile is where WriteResultsFile puts the results record unless
// told otherwise.
const DefaultResultsFile = ".csim_results"

// Print writes the human-readable summary line.
func Print(w io.Writer, stats cache.Statistics) error {
	_, err := fmt.Fprintf(w, "hits:%d misses:%d evictions:%d\n",
		stats.Hits, stats.Misses, stats.Evictions)

	return err
}

// WriteResults writes the results record: the three counters separated by
// spaces on a single line.
func WriteResults(w io.Writer, stats cache.Statistics) error {
	_, err := fmt.Fprintf(w, "%d %d %d\n",
		stats.Hits, stats.Misses, stats.Evictions)

	return err
}

// WriteResultsFile replaces the file at path with the results record.
func WriteResultsFile(path string, stats cache.Statistics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}

	if err := WriteResults(f, stats); err != nil {
		f.Close()
		return fmt.Errorf("write results file: %w", err)
	}

	return f.Close()
}
