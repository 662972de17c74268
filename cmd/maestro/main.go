// Command maestro runs a multi-agent session from a scenario file and prints
// the synthesized final document.
//
// Usage:
//
//	maestro run --scenario scenario.yaml            # run a session
//	maestro run --config maestro.yaml --scenario s.yaml --doc notes.md
//	maestro version                                 # show version info
package main

import (
	"fmt"
	"os"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runSession(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("maestro %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`maestro - multi-agent session orchestrator

Usage:
  maestro <command> [options]

Commands:
  run       Run a session from a scenario file
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>     Path to configuration file (YAML)
  --scenario <path>   Path to scenario file (YAML, required)
  --doc <path>        Document to index for retrieval (repeatable)
  --audio-dir <path>  Directory for synthesized speech clips

Examples:
  maestro run --scenario boardroom.yaml
  maestro run --config /etc/maestro/config.yaml --scenario sprint.yaml --doc spec.md
  maestro version`)
}
