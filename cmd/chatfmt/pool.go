package main

import "runtime"

// resolveWorkers determines how many files are formatted at once.
// Priority: explicit flag > CHATFMT_WORKERS > GOMAXPROCS-based calculation.
func resolveWorkers(flagWorkers, envWorkers int) int {
	if flagWorkers > 0 {
		return flagWorkers
	}
	if envWorkers > 0 {
		return min(envWorkers, MaxWorkers)
	}

	// Formatting is CPU-bound; GOMAXPROCS is adjusted by automaxprocs for containers.
	return min(max(runtime.GOMAXPROCS(0), 1), 8)
}
