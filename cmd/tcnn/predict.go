package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/alexarnimueller/transformer-cnn/internal/explain"
)

func predictCmd() *cli.Command {
	var asJSON bool

	flags := append(commonModelFlags(), loggingFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "emit the prediction as JSON",
			Destination: &asJSON,
		},
	)

	return &cli.Command{
		Name:      "predict",
		Usage:     "Predict a property for one molecule string",
		ArgsUsage: "SMILES",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("predict needs exactly one input string", 2)
			}
			input := cmd.Args().First()
			applyCommonConfig(cmd, LoadConfig())
			ctx, log := withLogger(ctx)

			m, err := loadModel()
			if err != nil {
				return err
			}
			log.Debug("model loaded", "task", m.Meta.TaskName, "type", m.Meta.TaskType)

			p, err := explain.Predict(ctx, m, input)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}

			unit := m.Meta.OutputUnit
			fmt.Printf("%s prediction: %.7g %s\n", m.Meta.TaskName, p.Score, unit)
			fmt.Printf("raw output:    %.7g\n\n", p.Raw)
			fmt.Println("token      relevance")
			for _, row := range p.Chart {
				fmt.Printf("%-10s %12.6f\n", row.Token, row.Relevance)
			}
			return nil
		},
	}
}
