package datarecording

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/xid"
)

// RunsTable is the table that holds one row per simulation run.
const RunsTable = "runs"

const timeLayout = "2006-01-02 15:04:05.000000000"

// RunEntry is one row of the runs table.
type RunEntry struct {
	RunID         string
	Command       string
	TraceFile     string
	SetBits       int
	Associativity int
	BlockBits     int
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	StartTime     string
	EndTime       string
}

// A RunRecorder records the parameters and the outcome of a simulation run.
type RunRecorder struct {
	recorder DataRecorder
	entry    RunEntry
	now      func() time.Time
}

// NewRunRecorder creates the runs table if needed and returns a recorder for
// one run. The run gets a fresh ID right away so that other tables can refer
// to it.
func NewRunRecorder(recorder DataRecorder) *RunRecorder {
	recorder.CreateTable(RunsTable, RunEntry{})

	return &RunRecorder{
		recorder: recorder,
		entry:    RunEntry{RunID: xid.New().String()},
		now:      time.Now,
	}
}

// RunID returns the ID of the run being recorded.
func (r *RunRecorder) RunID() string {
	return r.entry.RunID
}

// Start notes the configuration and the start time of the run.
func (r *RunRecorder) Start(
	traceFile string,
	setBits, associativity, blockBits int,
) {
	r.entry.Command = strings.Join(os.Args, " ")
	r.entry.TraceFile = traceFile
	r.entry.SetBits = setBits
	r.entry.Associativity = associativity
	r.entry.BlockBits = blockBits
	r.entry.StartTime = r.now().Format(timeLayout)
}

// End writes the run with its final counters.
func (r *RunRecorder) End(hits, misses, evictions uint64) {
	r.entry.Hits = hits
	r.entry.Misses = misses
	r.entry.Evictions = evictions
	r.entry.EndTime = r.now().Format(timeLayout)

	r.recorder.InsertData(RunsTable, r.entry)
	r.recorder.Flush()
}

// RunQuery selects recorded runs.
type RunQuery struct {
	// TraceFile keeps only the runs of this trace when not empty.
	TraceFile string

	// Limit is the maximum number of runs to return, 0 for all of them.
	Limit int

	// Offset skips the newest runs. It only applies with a Limit.
	Offset int
}

// ReadRuns returns recorded runs, newest first, along with the number of runs
// that match q regardless of paging.
func ReadRuns(
	ctx context.Context,
	reader DataReader,
	q RunQuery,
) ([]RunEntry, int, error) {
	reader.MapTable(RunsTable, RunEntry{})

	params := QueryParams{
		OrderBy: "StartTime DESC",
		Limit:   q.Limit,
		Offset:  q.Offset,
	}

	if q.TraceFile != "" {
		params.Where = "TraceFile = ?"
		params.Args = []any{q.TraceFile}
	}

	results, total, err := reader.Query(ctx, RunsTable, params)
	if err != nil {
		return nil, 0, err
	}

	runs := make([]RunEntry, 0, len(results))
	for _, r := range results {
		runs = append(runs, *r.(*RunEntry))
	}

	return runs, total, nil
}
