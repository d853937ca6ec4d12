// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// rlxinfo inspects relacs recording bundles: it lists repro runs and their
// traces and prints trace data.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	_ "github.com/OpenPSG/rlxnix/plugins/efish"
)

func main() {
	var (
		ctx    = context.Background()
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	if err := exec(ctx, stdout, stderr, args); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdout, stderr io.Writer, args []string) (err error) {
	rootConfig := &rootConfig{stdout: stdout, stderr: stderr}
	rootFlags := ff.NewFlagSet("rlxinfo")
	rootConfig.register(rootFlags)

	rootCommand := &ff.Command{
		Name:      "rlxinfo",
		ShortHelp: "inspect relacs recording bundles",
		Flags:     rootFlags,
	}

	runsFlags := ff.NewFlagSet("runs").SetParent(rootFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "runs",
		ShortHelp: "list the repro runs of a recording",
		Flags:     runsFlags,
		Exec:      (&runsConfig{rootConfig: rootConfig}).Exec,
	})

	refsFlags := ff.NewFlagSet("refs").SetParent(rootFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "refs",
		ShortHelp: "list the traces and features of a repro run",
		Flags:     refsFlags,
		Exec:      (&refsConfig{rootConfig: rootConfig}).Exec,
	})

	traceConfig := &traceConfig{rootConfig: rootConfig}
	traceFlags := ff.NewFlagSet("trace").SetParent(rootFlags)
	traceConfig.register(traceFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "trace",
		ShortHelp: "print the data of a trace",
		LongHelp:  "Print time and value of a continuous trace, or the times of an event trace, for a run or one of its stimuli.",
		Flags:     traceFlags,
		Exec:      traceConfig.Exec,
	})

	signalConfig := &signalConfig{rootConfig: rootConfig}
	signalFlags := ff.NewFlagSet("signal").SetParent(rootFlags)
	signalConfig.register(signalFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "signal",
		ShortHelp: "print an efish signal such as spikes or local eod",
		LongHelp:  "Resolve the signal to a trace through the trace configuration and print it. Continuous signals can be reduced to their amplitude modulation envelope.",
		Flags:     signalFlags,
		Exec:      signalConfig.Exec,
	})

	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	if err := rootCommand.Parse(args, ff.WithEnvVarPrefix("RLXINFO")); err != nil {
		return err
	}

	level, err := log.ParseLevel(rootConfig.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", rootConfig.logLevel)
	}
	rootConfig.logger = &log.Logger{Handler: cli.New(stderr), Level: level}

	// Run errors shouldn't show help.
	showHelp = false

	return rootCommand.Run(ctx)
}
