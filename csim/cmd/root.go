// Package cmd provides the command-line interface of csim.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

const usageTemplate = `{{if .HasParent}}Usage:
  {{.UseLine}}
{{if .HasAvailableLocalFlags}}
Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{else}}Usage: {{.CommandPath}} [-hv] -s <num> -E <num> -b <num> -t <file>
Options:
  -h         Print this help message.
  -v         Optional verbose flag.
  -s <num>   Number of set index bits.
  -E <num>   Number of lines per set.
  -b <num>   Number of block offset bits.
  -t <file>  Trace file.

Output and recording:
      --results <file>     Where to write the results record (default .csim_results).
      --no-results         Do not write the results record.
      --record <file>      Record the run into a SQLite database.
      --record-accesses    Also record every access (implies --record).
      --monitor            Serve the simulation progress over HTTP.
      --monitor-port <n>   Port of the monitoring server.
      --open-browser       Open the monitoring page in a browser.

Commands:
  history    List recorded runs.
  version    Print the version.

Examples:
  linux>  {{.CommandPath}} -s 4 -E 1 -b 4 -t traces/yi.trace
  linux>  {{.CommandPath}} -v -s 8 -E 2 -b 4 -t traces/yi.trace
{{end}}`

var opts runOptions

// rootCmd runs a simulation when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:  "csim",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		err := opts.fillFromEnv(cmd.Flags())
		if err != nil {
			atexit.Fatalf("%s: %v", cmd.CommandPath(), err)
		}

		if opts.missingRequired() {
			fmt.Printf("%s: Missing required command line argument\n",
				cmd.CommandPath())
			cmd.SetOut(os.Stdout)
			_ = cmd.Usage()
			atexit.Exit(1)
		}

		err = runSimulation(opts, cmd.OutOrStdout())
		if err != nil {
			atexit.Fatalf("%s: %v", cmd.CommandPath(), err)
		}

		atexit.Exit(0)
	},
}

func init() {
	rootCmd.SetUsageTemplate(usageTemplate)

	f := rootCmd.Flags()
	f.IntVarP(&opts.setBits, "set-bits", "s", 0, "number of set index bits")
	f.IntVarP(&opts.associativity, "lines", "E", 0, "number of lines per set")
	f.IntVarP(&opts.blockBits, "block-bits", "b", 0, "number of block offset bits")
	f.StringVarP(&opts.traceFile, "trace", "t", "", "trace file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print the outcome of every event")
	f.StringVar(&opts.resultsFile, "results", "", "where to write the results record")
	f.BoolVar(&opts.noResults, "no-results", false, "do not write the results record")
	f.StringVar(&opts.record, "record", "", "record the run into a SQLite database")
	f.BoolVar(&opts.recordAccesses, "record-accesses", false, "also record every access")
	f.BoolVar(&opts.monitor, "monitor", false, "serve the simulation progress over HTTP")
	f.IntVar(&opts.monitorPort, "monitor-port", 0, "port of the monitoring server")
	f.BoolVar(&opts.openBrowser, "open-browser", false, "open the monitoring page in a browser")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	loadDotEnv()

	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}
