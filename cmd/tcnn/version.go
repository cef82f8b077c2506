package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

var (
	// Version is the release version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if Commit != "" {
				fmt.Printf("%s (%s)\n", Version, Commit)
				return nil
			}
			fmt.Println(Version)
			return nil
		},
	}
}
