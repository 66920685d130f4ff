// cmd/onboard/main.go
//
// This is the entry point for the onboarding console.
//
// Flow:
// 1. Initialize the .onboard folder next to the current directory
// 2. Load configuration (yaml file plus ONBOARD_* environment overrides)
// 3. Launch the TUI

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kingrea/onboard/internal/config"
	"github.com/kingrea/onboard/internal/tui"
)

func main() {
	baseDir := flag.String("dir", "", "directory holding .onboard state (defaults to cwd)")
	flag.Parse()

	dir := *baseDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
		dir = cwd
	}
	absolute, err := filepath.Abs(dir)
	if err != nil {
		die("resolve base dir: %v", err)
	}

	if err := config.InitOnboardDir(absolute); err != nil {
		die("init .onboard: %v", err)
	}
	cfg, err := config.Load(absolute)
	if err != nil {
		die("load config: %v", err)
	}

	if err := tui.Run(cfg); err != nil {
		die("run console: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "onboard: "+format+"\n", args...)
	os.Exit(1)
}
