package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/unused-finder/monorepo-core/internal/app"
)

var ErrHelpRequested = errors.New("help requested")

// ParseArgs parses a command line into an app.Request. With no arguments,
// or when the first argument is a flag, the default analyse command runs.
// "graph" is the only other recognized subcommand.
func ParseArgs(args []string) (app.Request, error) {
	req := app.DefaultRequest()
	if len(args) == 0 {
		return req, nil
	}

	if isHelpArg(args[0]) {
		return req, ErrHelpRequested
	}

	switch {
	case args[0] == "graph":
		return parseGraph(args[1:], req)
	case strings.HasPrefix(args[0], "-"):
		return parseAnalyse(args, req)
	default:
		return req, fmt.Errorf("unknown command: %s", args[0])
	}
}

func parseAnalyse(args []string, req app.Request) (app.Request, error) {
	args = normalizeArgs(args)

	fs := flag.NewFlagSet("analyse", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", req.ConfigPath, "config file path")
	deadlockDetector := fs.Bool("deadlock-detector", req.DeadlockDetector, "set the deadlockDetector config option (no analysis step reads it)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return req, ErrHelpRequested
		}
		return req, err
	}
	if fs.NArg() > 0 {
		return req, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	req.Mode = app.ModeAnalyse
	req.ConfigPath = strings.TrimSpace(*configPath)
	req.DeadlockDetector = *deadlockDetector
	return req, nil
}

func parseGraph(args []string, req app.Request) (app.Request, error) {
	args = normalizeArgs(args)

	fs := flag.NewFlagSet("graph", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", req.ConfigPath, "config file path")
	deadlockDetector := fs.Bool("deadlock-detector", req.DeadlockDetector, "set the deadlockDetector config option (no analysis step reads it)")
	filter := fs.String("filter", "", "only include files whose path contains this substring")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return req, ErrHelpRequested
		}
		return req, err
	}
	if fs.NArg() > 0 {
		return req, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	req.Mode = app.ModeGraph
	req.ConfigPath = strings.TrimSpace(*configPath)
	req.DeadlockDetector = *deadlockDetector
	req.GraphFilter = strings.TrimSpace(*filter)
	return req, nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	flags := make([]string, 0, len(args))
	positionals := make([]string, 0, 1)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			if flagNeedsValue(arg) && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positionals = append(positionals, arg)
	}

	return append(flags, positionals...)
}

func flagNeedsValue(arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	switch arg {
	case "--config", "--filter":
		return true
	default:
		return false
	}
}
