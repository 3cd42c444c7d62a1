// Command csim simulates the hit, miss, and eviction behavior of an LRU
// cache on a memory trace.
package main

import "github.com/sarchlab/cachesim/csim/cmd"

func main() {
	cmd.Execute()
}
