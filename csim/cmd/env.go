package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Environment variables that provide defaults for the flags.
const (
	EnvSetBits       = "CSIM_SET_BITS"
	EnvAssociativity = "CSIM_ASSOCIATIVITY"
	EnvBlockBits     = "CSIM_BLOCK_BITS"
	EnvTrace         = "CSIM_TRACE"
	EnvResults       = "CSIM_RESULTS"
)

// loadDotEnv adds the variables of a .env file in the working directory to
// the environment. Variables that are already set are left alone.
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("ignoring .env: %v", err)
	}
}

// fillFromEnv sets every option whose flag was not given from the
// environment.
func (o *runOptions) fillFromEnv(flags *pflag.FlagSet) error {
	ints := []struct {
		flag string
		env  string
		dst  *int
	}{
		{"set-bits", EnvSetBits, &o.setBits},
		{"lines", EnvAssociativity, &o.associativity},
		{"block-bits", EnvBlockBits, &o.blockBits},
	}

	for _, i := range ints {
		v, ok := os.LookupEnv(i.env)
		if !ok || flags.Changed(i.flag) {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.env, err)
		}

		*i.dst = n
	}

	if v, ok := os.LookupEnv(EnvTrace); ok && !flags.Changed("trace") {
		o.traceFile = v
	}

	if v, ok := os.LookupEnv(EnvResults); ok && !flags.Changed("results") {
		o.resultsFile = v
	}

	return nil
}
