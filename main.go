// SPDX-License-Identifier: MIT
package main

import (
	"os"

	"spectrogram/cmd"
	applog "spectrogram/internal/log"
	"spectrogram/pkg/build"
)

// main parses the command line, then either lists devices or renders one
// spectrogram. Every failure exits non-zero through applog.Fatalf.
func main() {
	// Development builds have no ldflags; the defaults are fine.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build info: %v", err)
	}

	options, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}
	// --help and --version exit cobra without selecting a command.
	if options.Config == nil {
		return
	}
	cmd.ConfigureLogging(options.Config)

	switch options.Command {
	case cmd.CommandList:
		err = cmd.List(os.Stdout)
	default:
		err = cmd.Render(options, os.Stdout)
	}
	if err != nil {
		applog.Fatalf("%v", err)
	}
}
