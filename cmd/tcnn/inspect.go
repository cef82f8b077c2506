package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/alexarnimueller/transformer-cnn/pkg/tcw"
)

func inspectCmd() *cli.Command {
	var (
		path        string
		showTensors bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show the contents of a .tcw weight file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "path to .tcw weight file",
				Required:    true,
				Destination: &path,
			},
			&cli.BoolFlag{
				Name:        "tensors",
				Aliases:     []string{"t"},
				Usage:       "list every tensor with shape and size",
				Destination: &showTensors,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := tcw.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			h := f.Header
			fmt.Printf("tcw %d.%d, %d sections, %d bytes\n",
				h.Major, h.Minor, h.SectionCount, h.FileSize)
			for _, s := range f.Sections {
				fmt.Printf("  section type=0x%x version=%d offset=%d size=%d\n",
					s.Type, s.Version, s.Offset, s.Size)
			}

			info, err := f.ReadModelInfo()
			if err != nil {
				return err
			}
			fmt.Printf("\ntask:      %s (%s)\n", info.TaskName, info.TaskType)
			fmt.Printf("transform: %s\n", displayTransform(info.OutputTransform))
			if info.OutputUnit != "" {
				fmt.Printf("unit:      %s\n", info.OutputUnit)
			}

			ti, err := f.ReadTensorIndex()
			if err != nil {
				return err
			}
			fmt.Printf("tensors:   %d\n", ti.Count())

			if !showTensors {
				return nil
			}
			fmt.Println()
			for i := 0; i < ti.Count(); i++ {
				name, err := ti.Name(i)
				if err != nil {
					return err
				}
				entry, err := ti.Entry(i)
				if err != nil {
					return err
				}
				shape, err := ti.Shape(i)
				if err != nil {
					return err
				}
				fmt.Printf("  %-28s %v  %s  %d bytes\n",
					name, shape, dtypeName(entry.DType), entry.DataSize)
			}
			return nil
		},
	}
}

func displayTransform(tag string) string {
	if tag == "" {
		return "identity"
	}
	return tag
}

func dtypeName(d tcw.TensorDType) string {
	switch d {
	case tcw.DTypeF32:
		return "f32"
	case tcw.DTypeF64:
		return "f64"
	default:
		return fmt.Sprintf("dtype(%d)", d)
	}
}
