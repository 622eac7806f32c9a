// Command regionbench runs the region engine's end-to-end scenarios (the
// grid walker and Game of Life) from the command line, printing one line
// per step/generation so the scenario invariants ("unreachable +
// reachable == 64", "debug_size() == live_cells + 1") can be eyeballed or
// piped into a CSV.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
