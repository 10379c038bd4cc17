// Command train fits a small MLP described by an HCL config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joelsearcy/scalargrad/internal/config"
	"github.com/joelsearcy/scalargrad/internal/ctxlog"
	"github.com/joelsearcy/scalargrad/pkg/train"
)

// ExitError is an error carrying a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type options struct {
	configPath string
	logLevel   string
	logFormat  string
	epochs     int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	opts, shouldExit, err := parseArgs(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(opts.logLevel, opts.logFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)

	cfg, err := config.Load(ctx, opts.configPath)
	if err != nil {
		return err
	}
	if opts.epochs > 0 {
		cfg.Epochs = opts.epochs
	}

	res, err := train.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Fprintf(outW, "epochs %d | steps %d | params %d\n", res.Epochs, res.Steps, res.Params)
	fmt.Fprintf(outW, "train loss %.4f | train accuracy %.2f%%\n", res.Train.Loss, 100*res.Train.Accuracy)
	fmt.Fprintf(outW, "test  loss %.4f | test  accuracy %.2f%%\n", res.Test.Loss, 100*res.Test.Accuracy)
	return nil
}

// parseArgs processes command-line arguments. It returns the options, a
// boolean indicating the program should exit cleanly, or an ExitError.
func parseArgs(args []string, output io.Writer) (*options, bool, error) {
	flagSet := flag.NewFlagSet("train", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
train - fit a small MLP with scalar reverse-mode autodiff.

Usage:
  train [options] [CONFIG_PATH]

Options:
`)
		flagSet.PrintDefaults()
	}

	opts := &options{}
	flagSet.StringVar(&opts.configPath, "config", "", "Path to the HCL training config.")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&opts.logFormat, "log-format", "text", "Log output format: 'text' or 'json'.")
	flagSet.IntVar(&opts.epochs, "epochs", 0, "Override the number of epochs from the config. 0 keeps the config value.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if opts.configPath == "" && flagSet.NArg() > 0 {
		opts.configPath = flagSet.Arg(0)
	}
	if opts.configPath == "" {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "a config path is required"}
	}

	opts.logLevel = strings.ToLower(opts.logLevel)
	switch opts.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	opts.logFormat = strings.ToLower(opts.logFormat)
	if opts.logFormat != "text" && opts.logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	if opts.epochs < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid epochs: must not be negative"}
	}
	return opts, false, nil
}

// newLogger creates a slog.Logger without touching the global default.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
