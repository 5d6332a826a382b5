// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/j-sow/keypipe/lib/process"
	"github.com/j-sow/keypipe/lib/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(process.ExitFailure)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "listen":
		err = listenCmd(args)
	case "send":
		err = sendCmd(args)
	case "version", "--version", "-v":
		if len(args) > 0 && args[0] == "--full" {
			fmt.Printf("keypipe %s\n", version.Full())
		} else {
			fmt.Printf("keypipe %s\n", version.Info())
		}
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(process.ExitFailure)
	}

	if err != nil {
		process.Fatal(err)
	}
}

func printUsage() {
	fmt.Print(`keypipe - relay single characters from a named pipe into a log file

USAGE
    keypipe <command> [flags] [args...]

COMMANDS
    listen   Own the named pipe and append incoming characters to the log
    send     Write characters into a running listener's pipe
    version  Show version (--full adds Go and platform details)
    help     Show this help

EXAMPLES
    # Start the listener with the default paths
    keypipe listen

    # Record h and i, then stop the listener with the q sentinel
    keypipe send hi
    keypipe send --quit

    # Custom locations
    keypipe listen --pipe /run/debug/pipe --output /run/debug/keys.log

ENVIRONMENT
    KEYPIPE_CONFIG   Path to a keypipe.yaml config file
    KEYPIPE_PIPE     Override the named pipe location
    KEYPIPE_OUTPUT   Override the log destination
`)
}
