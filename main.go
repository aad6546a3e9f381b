// Package main provides the entry point for TomasuloSim.
// TomasuloSim is a cycle-accurate simulator of Tomasulo's out-of-order
// execution algorithm.
//
// For the full CLI, use: go run ./cmd/tomasulosim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("TomasuloSim - Tomasulo out-of-order execution simulator")
	fmt.Println("")
	fmt.Println("Usage: tomasulosim [options] <program.asm>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to machine configuration file (JSON or TOML)")
	fmt.Println("  -mem-words   Memory size in words")
	fmt.Println("  -trace       Print per-cycle pipeline events")
	fmt.Println("  -functional  Run the sequential reference interpreter")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasulosim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasulosim' instead.")
	}
}
