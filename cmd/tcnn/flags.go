package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/alexarnimueller/transformer-cnn/internal/logger"
	"github.com/alexarnimueller/transformer-cnn/internal/model"
)

var (
	modelPath string
	maxInput  int64
	workers   int64
	logLevel  string
	logFormat string
	debug     bool
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to .tcw weight file",
			Destination: &modelPath,
		},
		&cli.Int64Flag{
			Name:        "max-input",
			Usage:       "maximum input characters before padding",
			Value:       model.DefaultMaxInput,
			Destination: &maxInput,
		},
	}
}

func workerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"w"},
			Usage:       "concurrent passes during explanation (0 = all CPUs)",
			Destination: &workers,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// withLogger builds a logger from the shared logging flags and installs it
// into the command context.
func withLogger(ctx context.Context) (context.Context, logger.Logger) {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = logger.ParseLevel("debug")
	}
	var log logger.Logger
	switch logFormat {
	case "json":
		log = logger.JSON(os.Stderr, level)
	case "text":
		log = logger.Text(os.Stderr, level)
	default:
		log = logger.Pretty(os.Stderr, level)
	}
	return logger.WithContext(ctx, log), log
}

// loadModel opens the weight store named by the shared model flag.
func loadModel() (*model.Model, error) {
	path := modelPath
	if path == "" {
		path = os.Getenv("TCNN_MODEL")
	}
	if path == "" {
		return nil, cli.Exit("no model given: pass --model or set TCNN_MODEL", 2)
	}
	return model.Load(path, int(maxInput))
}
