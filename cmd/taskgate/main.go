// Package main is the entry point for the taskgate CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/taskgate/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	app cliAppOptions

	allow    bool
	deny     bool
	status   bool
	wait     bool
	waitSecs int
}

type cliAppOptions struct {
	folders    []string
	configPath string
	logLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	application, err := app.New(app.Options{
		Folders:    opts.app.folders,
		ConfigPath: opts.app.configPath,
		LogLevel:   opts.app.logLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer application.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		cancel()
		application.Shutdown()
	}()

	// Direct consent actions bypass the open flow entirely.
	switch {
	case opts.status:
		fmt.Printf("Automatic tasks: %s\n", application.Consent())
		return 0

	case opts.allow:
		if err := application.AllowAutomaticTasks(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0

	case opts.deny:
		if err := application.DisallowAutomaticTasks(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.wait {
		waitCtx := ctx
		if opts.waitSecs > 0 {
			var waitCancel context.CancelFunc
			waitCtx, waitCancel = context.WithTimeout(ctx, time.Duration(opts.waitSecs)*time.Second)
			defer waitCancel()
		}
		application.WaitForTasks(waitCtx)
	}

	return 0
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.app.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.app.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.app.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.allow, "allow", false, "Allow automatic tasks for the workspace and exit")
	flag.BoolVar(&opts.deny, "deny", false, "Disallow automatic tasks for the workspace and exit")
	flag.BoolVar(&opts.status, "status", false, "Print the workspace's automatic-task consent and exit")
	flag.BoolVar(&opts.wait, "wait", true, "Wait for dispatched tasks to finish before exiting")
	flag.IntVar(&opts.waitSecs, "timeout", 0, "Seconds to wait for tasks (0 = no limit)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Taskgate - consent-gated automatic workspace tasks\n\n")
		fmt.Fprintf(os.Stderr, "Usage: taskgate [options] [folders...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  taskgate                    Open the current directory\n")
		fmt.Fprintf(os.Stderr, "  taskgate ./project          Open a workspace folder\n")
		fmt.Fprintf(os.Stderr, "  taskgate -allow ./project   Allow automatic tasks without running them\n")
		fmt.Fprintf(os.Stderr, "  taskgate -status ./project  Show the workspace's consent state\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Taskgate %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.app.logLevel != "" {
		switch opts.app.logLevel {
		case "debug", "info", "warn", "error":
			// Valid
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.app.logLevel)
			os.Exit(1)
		}
	}

	// Remaining arguments are workspace folders to open.
	opts.app.folders = flag.Args()
	if len(opts.app.folders) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.app.folders = []string{cwd}
	}

	return opts
}
