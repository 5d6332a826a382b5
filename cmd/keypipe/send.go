// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/j-sow/keypipe/lib/fifo"
	"github.com/j-sow/keypipe/lib/relay"
	"github.com/spf13/pflag"
)

// buildPayload assembles the bytes to push into the pipe from the
// positional arguments, optionally appending the sentinel. The relay
// reads one byte at a time, so multi-character arguments are simply
// relayed byte by byte.
func buildPayload(args []string, quit bool) ([]byte, error) {
	payload := []byte(strings.Join(args, ""))
	if quit {
		payload = append(payload, relay.DefaultSentinel)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("nothing to send: pass characters, --quit, or both")
	}
	return payload, nil
}

func sendCmd(args []string) error {
	flags := pflag.NewFlagSet("send", pflag.ContinueOnError)
	configPath := flags.String("config", "",
		"path to a keypipe.yaml config file (default: KEYPIPE_CONFIG)")
	pipePath := flags.String("pipe", "",
		"override the named pipe location")
	quit := flags.Bool("quit", false,
		"append the sentinel, stopping the listener")
	if err := flags.Parse(args); err != nil {
		return err
	}

	payload, err := buildPayload(flags.Args(), *quit)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(*configPath, *pipePath, "")
	if err != nil {
		return err
	}

	writer, err := fifo.OpenWriter(cfg.PipePath)
	if err != nil {
		return err
	}
	defer writer.Close()

	if _, err := writer.Write(payload); err != nil {
		return fmt.Errorf("writing to named pipe %s: %w", cfg.PipePath, err)
	}
	return nil
}
