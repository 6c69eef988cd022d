// main is the entry point of the treemetrics CLI.
package main

import (
	"os"

	"github.com/huangsam/treemetrics/cmd"
	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/internal/iocache"
)

func main() {
	defer iocache.CloseCaching()
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogWarn("Command failed", err)
		iocache.CloseCaching()
		os.Exit(1)
	}
}
