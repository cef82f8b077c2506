package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/toy"
	"github.com/alexarnimueller/transformer-cnn/pkg/tcw"
)

// tensorDump is the raw JSON export format accepted by pack: model metadata
// plus one entry per named tensor.
type tensorDump struct {
	Info    tcw.ModelInfo `json:"info"`
	Tensors []struct {
		Name  string    `json:"name"`
		Shape []uint64  `json:"shape"`
		Data  []float64 `json:"data"`
	} `json:"tensors"`
}

func packCmd() *cli.Command {
	var (
		inputPath  string
		outputPath string
		demo       bool
		seed       int64
	)

	return &cli.Command{
		Name:  "pack",
		Usage: "Build a .tcw weight file from a raw tensor dump",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "path to a JSON tensor dump",
				Destination: &inputPath,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "path of the .tcw file to write",
				Required:    true,
				Destination: &outputPath,
			},
			&cli.BoolFlag{
				Name:        "demo",
				Usage:       "write a random demo model instead of packing a dump",
				Destination: &demo,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "demo model seed",
				Value:       1,
				Destination: &seed,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if demo {
				if err := toy.WriteStore(outputPath, tcw.TaskRegression, "identity", seed); err != nil {
					return err
				}
				fmt.Printf("wrote demo model to %s\n", outputPath)
				return nil
			}
			if inputPath == "" {
				return cli.Exit("pack needs --input or --demo", 2)
			}

			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return err
			}
			var dump tensorDump
			if err := json.Unmarshal(raw, &dump); err != nil {
				return fmt.Errorf("parse tensor dump: %w", err)
			}

			payloads := make([]tcw.TensorPayload, len(dump.Tensors))
			named := make(map[string]model.Tensor, len(dump.Tensors))
			for i, t := range dump.Tensors {
				payloads[i] = tcw.TensorPayload{
					Name:  t.Name,
					DType: tcw.DTypeF64,
					Shape: t.Shape,
					Data:  t.Data,
				}
				shape := make([]int, len(t.Shape))
				for j, d := range t.Shape {
					shape[j] = int(d)
				}
				named[t.Name] = model.Tensor{Shape: shape, Data: t.Data}
			}

			// Validate against the architecture before writing anything.
			if _, err := model.New(dump.Info, named, 0); err != nil {
				return err
			}

			f, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			if err := tcw.WriteStore(f, dump.Info, payloads); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("packed %d tensors into %s\n", len(payloads), outputPath)
			return nil
		},
	}
}
