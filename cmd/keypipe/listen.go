// Copyright 2026 The Keypipe Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/j-sow/keypipe/lib/config"
	"github.com/j-sow/keypipe/lib/fifo"
	"github.com/j-sow/keypipe/lib/journal"
	"github.com/j-sow/keypipe/lib/process"
	"github.com/j-sow/keypipe/lib/relay"
	"github.com/spf13/pflag"
)

// listenOptions holds the parsed flags of the listen command.
type listenOptions struct {
	configPath string
	pipePath   string
	outputPath string
	sentinel   string
	logLevel   string
}

func parseListenFlags(args []string) (*listenOptions, error) {
	options := &listenOptions{}
	flags := pflag.NewFlagSet("listen", pflag.ContinueOnError)
	flags.StringVar(&options.configPath, "config", "",
		"path to a keypipe.yaml config file (default: KEYPIPE_CONFIG)")
	flags.StringVar(&options.pipePath, "pipe", "",
		"override the named pipe location")
	flags.StringVar(&options.outputPath, "output", "",
		"override the output log destination")
	flags.StringVar(&options.sentinel, "sentinel", string(relay.DefaultSentinel),
		"single character that stops the listener")
	flags.StringVar(&options.logLevel, "log-level", "info",
		"diagnostic log level (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("listen takes no positional arguments, got %v", flags.Args())
	}
	return options, nil
}

// parseSentinel validates the --sentinel flag. The pipe protocol is
// one byte per command, so the sentinel must be exactly one byte.
func parseSentinel(value string) (byte, error) {
	if len(value) != 1 {
		return 0, fmt.Errorf("sentinel must be a single byte, got %q", value)
	}
	return value[0], nil
}

// resolveConfig layers flag overrides on top of the loaded
// configuration and validates the result.
func resolveConfig(configPath, pipeOverride, outputOverride string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if pipeOverride != "" {
		cfg.PipePath = pipeOverride
	}
	if outputOverride != "" {
		cfg.OutputPath = outputOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func listenCmd(args []string) error {
	options, err := parseListenFlags(args)
	if err != nil {
		return err
	}
	level, err := parseLogLevel(options.logLevel)
	if err != nil {
		return err
	}
	sentinel, err := parseSentinel(options.sentinel)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(options.configPath, options.pipePath, options.outputPath)
	if err != nil {
		return err
	}

	logger := newLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Acquire the pipe path. Failure here means the listener never
	// entered its loop, which gets the distinct startup exit code.
	pipe, err := fifo.Create(cfg.PipePath)
	if err != nil {
		return process.WithCode(process.ExitStartupFailure, err)
	}
	defer func() {
		// Cleanup failure is not worth a non-zero exit: nothing
		// downstream depends on the unlink succeeding.
		if err := pipe.Remove(); err != nil {
			logger.Warn("pipe cleanup failed", "error", err)
		}
	}()

	outputLog := journal.New(cfg.OutputPath)
	defer outputLog.Close()

	logger.Info("listening",
		"pipe", cfg.PipePath,
		"output", cfg.OutputPath,
		"sentinel", options.sentinel,
	)

	err = relay.New(pipe, outputLog, logger, sentinel).Run(ctx)
	if errors.Is(err, context.Canceled) {
		// Signal-triggered shutdown. The deferred cleanup still runs,
		// and the process exits successfully.
		logger.Info("interrupted, cleaning up")
		return nil
	}
	return err
}
