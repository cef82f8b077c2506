package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/alexarnimueller/transformer-cnn/internal/explain"
)

func explainCmd() *cli.Command {
	var (
		rootingsPath string
		asJSON       bool
	)

	flags := append(commonModelFlags(), workerFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "rootings",
			Aliases:     []string{"r"},
			Usage:       "path to a JSON rooting table (input, atoms, rooted)",
			Required:    true,
			Destination: &rootingsPath,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "emit the explanation as JSON",
			Destination: &asJSON,
		},
	)

	return &cli.Command{
		Name:  "explain",
		Usage: "Explain a prediction atom by atom",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyCommonConfig(cmd, LoadConfig())
			ctx, log := withLogger(ctx)

			rootings, err := explain.LoadRootings(rootingsPath)
			if err != nil {
				return err
			}
			m, err := loadModel()
			if err != nil {
				return err
			}
			log.Debug("explaining", "input", rootings.Input, "atoms", rootings.NumAtoms())

			res, err := explain.Run(ctx, m, rootings.Input, rootings, explain.Options{Workers: int(workers)})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Printf("%s prediction = %.7f +/- %.7f %s\n\n",
				m.Meta.TaskName, res.Mean, res.HalfWidth, m.Meta.OutputUnit)
			fmt.Println("atom  symbol    relevance")
			for _, a := range res.Atoms {
				fmt.Printf("%4d  %-8s %12.6f\n", a.Index, a.Symbol, a.Relevance)
			}
			fmt.Println()
			fmt.Println("token      relevance")
			for _, row := range res.Chart {
				fmt.Printf("%-10s %12.6f\n", row.Token, row.Relevance)
			}
			return nil
		},
	}
}
