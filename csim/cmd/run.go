package cmd

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/trace"
)

type runOptions struct {
	setBits       int
	associativity int
	blockBits     int
	traceFile     string
	verbose       bool

	resultsFile    string
	noResults      bool
	record         string
	recordAccesses bool

	monitor     bool
	monitorPort int
	openBrowser bool
}

// missingRequired tells if one of s, E, b, or the trace file was not given.
// Zero counts as not given.
func (o runOptions) missingRequired() bool {
	return o.setBits == 0 || o.associativity == 0 || o.blockBits == 0 ||
		o.traceFile == ""
}

func (o runOptions) config() cache.Config {
	return cache.Config{
		SetBits:       o.setBits,
		Associativity: o.associativity,
		BlockBits:     o.blockBits,
	}
}

func (o runOptions) recording() bool {
	return o.record != "" || o.recordAccesses
}

func runSimulation(o runOptions, out io.Writer) (err error) {
	config := o.config()
	if err := config.Validate(); err != nil {
		return err
	}

	reader, err := trace.Open(o.traceFile)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer reader.Close()

	engine := cache.MakeBuilder().
		WithConfig(config).
		Build("Cache")
	replayer := trace.NewReplayer(engine)

	if o.verbose {
		replayer.AcceptHook(trace.NewVerbosePrinter(out))
	}

	runRecorder, recorder, err := o.startRecording(engine)
	if err != nil {
		return err
	}

	if recorder != nil {
		defer func() {
			if cerr := recorder.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close recorder: %w", cerr)
			}
		}()
	}

	monitor, err := o.startMonitor(engine, replayer, reader)
	if err != nil {
		return err
	}

	if monitor != nil {
		defer func() {
			if serr := monitor.StopServer(context.Background()); serr != nil {
				log.Printf("stop monitoring server: %v", serr)
			}
		}()
	}

	replayer.Replay(reader.Events())

	if err := reader.Err(); err != nil {
		return fmt.Errorf("read trace: %w", err)
	}

	if monitor != nil {
		monitor.Finish()
	}

	stats := engine.Stats()

	if err := report.Print(out, stats); err != nil {
		return err
	}

	if !o.noResults {
		path := o.resultsFile
		if path == "" {
			path = report.DefaultResultsFile
		}

		if err := report.WriteResultsFile(path, stats); err != nil {
			return err
		}
	}

	if runRecorder != nil {
		runRecorder.End(stats.Hits, stats.Misses, stats.Evictions)
	}

	return nil
}

func (o runOptions) startRecording(
	engine *cache.Engine,
) (*datarecording.RunRecorder, datarecording.DataRecorder, error) {
	if !o.recording() {
		return nil, nil, nil
	}

	recorder, err := datarecording.Open(o.record)
	if err != nil {
		return nil, nil, fmt.Errorf("open recorder: %w", err)
	}

	runRecorder := datarecording.NewRunRecorder(recorder)
	runRecorder.Start(o.traceFile, o.setBits, o.associativity, o.blockBits)

	if o.recordAccesses {
		engine.AcceptHook(cache.NewDBTracer(runRecorder.RunID(), recorder))
	}

	return runRecorder, recorder, nil
}

func (o runOptions) startMonitor(
	engine *cache.Engine,
	replayer *trace.Replayer,
	reader *trace.Reader,
) (*monitoring.Monitor, error) {
	if !o.monitor {
		return nil, nil
	}

	monitor := monitoring.NewMonitor()
	if o.monitorPort != 0 {
		monitor = monitor.WithPortNumber(o.monitorPort)
	}

	monitor.RegisterEngine(engine)
	monitor.RegisterReplayer(replayer)
	monitor.TrackProgress(o.traceFile, reader.Progress)

	if _, err := monitor.StartServer(); err != nil {
		return nil, err
	}

	if o.openBrowser {
		if err := monitor.OpenBrowser(); err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	return monitor, nil
}
