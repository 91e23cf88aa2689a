// Package cli implements the envsmith subcommands. It wires the resolution
// pipeline to flag values, renders results for humans or machines, and maps
// pipeline errors to process exit codes, keeping the main package focused
// on argument parsing and orchestration.
package cli
