// Package main provides the adfconv CLI for inspecting and converting AMBF
// description files.
package main

import (
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/ambf-tools/adfgo/adf"
	"github.com/ambf-tools/adfgo/kinematics"
	"github.com/ambf-tools/adfgo/spatialmath"
)

func main() {
	logger := golog.NewDevelopmentLogger("adfconv")

	app := &cli.App{
		Name:  "adfconv",
		Usage: "inspect and convert AMBF description files",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "adjust-pivots",
				Usage: "canonicalize legacy joint pivots and axes while loading",
			},
			&cli.BoolFlag{
				Name:  "ignore-offsets",
				Usage: "treat stored joint offsets as zero while loading",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "load a file and report every joint problem found",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					return validateAction(c, logger)
				},
			},
			{
				Name:      "info",
				Usage:     "print the bodies and joints of a file with their resolved poses",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					return infoAction(c, logger)
				},
			},
			{
				Name:      "roundtrip",
				Usage:     "load a file and write it back out from the resolved scene",
				ArgsUsage: "<in> <out>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "namespace",
						Usage: "document namespace to write",
					},
				},
				Action: func(c *cli.Context) error {
					return roundtripAction(c, logger)
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func loadScene(c *cli.Context, path string, logger golog.Logger) (*adf.Document, *kinematics.ImportResult, error) {
	doc, err := adf.ReadDocumentFile(path)
	if err != nil {
		return nil, nil, err
	}
	opts := kinematics.ImportOptions{
		IgnoreOffsets: c.Bool("ignore-offsets"),
		AdjustPivots:  c.Bool("adjust-pivots"),
	}
	res, err := kinematics.ImportDocument(doc, opts, logger)
	if err != nil {
		return nil, nil, err
	}
	return doc, res, nil
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return errors.Errorf("expected %d argument(s), got %d", n, c.NArg())
	}
	return nil
}

func validateAction(c *cli.Context, logger golog.Logger) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	doc, res, err := loadScene(c, c.Args().First(), logger)
	if err != nil {
		return err
	}
	if res.JointErrors != nil {
		return errors.Wrapf(res.JointErrors, "%q has joint problems", c.Args().First())
	}
	fmt.Printf("%s: %d bodies, %d joints, ok\n",
		c.Args().First(), res.Scene.Len(), len(doc.JointKeys))
	return nil
}

func infoAction(c *cli.Context, logger golog.Logger) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	doc, res, err := loadScene(c, c.Args().First(), logger)
	if err != nil {
		return err
	}
	fmt.Printf("namespace: %s\n", doc.EffectiveNamespace())
	fmt.Println("bodies:")
	ordered, err := res.Scene.OrderBodies()
	if err != nil {
		return err
	}
	for _, b := range ordered {
		pos := spatialmath.Translation(b.World)
		parent := "-"
		if b.Parent() != nil {
			parent = adf.LocalName(b.Parent().Name)
		}
		fmt.Printf("  %-24s mass=%-8.4g parent=%-16s at (%.4f, %.4f, %.4f)\n",
			adf.LocalName(b.Name), b.Mass, parent, pos.X, pos.Y, pos.Z)
	}
	fmt.Println("joints:")
	for _, j := range res.Joints {
		detached := ""
		if j.Detached {
			detached = " (detached)"
		}
		fmt.Printf("  %-24s %-14s %s -> %s%s\n", j.DisplayName(), j.Kind,
			adf.LocalName(j.Parent.Name), adf.LocalName(j.Child.Name), detached)
	}
	if res.JointErrors != nil {
		logger.Warnw("file has joint problems", "error", res.JointErrors)
	}
	return nil
}

func roundtripAction(c *cli.Context, logger golog.Logger) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	doc, res, err := loadScene(c, c.Args().First(), logger)
	if err != nil {
		return err
	}
	if res.JointErrors != nil {
		logger.Warnw("continuing despite joint problems", "error", res.JointErrors)
	}

	namespace := c.String("namespace")
	if namespace == "" {
		namespace = doc.Namespace
	}
	out, err := kinematics.ExportDocument(res.Scene, res.Joints, kinematics.ExportOptions{
		Namespace:            namespace,
		HighResPath:          doc.HighResPath,
		LowResPath:           doc.LowResPath,
		IgnoreInterCollision: doc.IgnoreInterCollision,
	}, logger)
	if err != nil {
		return err
	}
	if out.JointErrors != nil {
		logger.Warnw("some joints were dropped", "error", out.JointErrors)
	}
	return out.Document.WriteFile(c.Args().Get(1))
}
