// Command dexinfo queries JediSwap token, pool, and factory metrics from the
// command line and manages the indexer databases.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
