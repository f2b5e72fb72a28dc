package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nextpkg/vrule"
)

// A small command that validates a value against a rule definition file:
//
//	vrule-check --rules rules.yaml --value hello
func main() {
	cmd := &cli.Command{
		Name:  "vrule-check",
		Usage: "validate a value against a declarative rule file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "rules",
				Usage:    "path to a YAML/JSON rule definition",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "value",
				Usage:    "the value to validate",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rs, err := vrule.LoadFile(cmd.String("rules"))
			if err != nil {
				return fmt.Errorf("cannot load rules: %w", err)
			}

			if r := rs.Evaluate(cmd.String("value")); !r.OK {
				return fmt.Errorf("rejected by check %q", r.FailedCheck)
			}

			fmt.Println("accepted")
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
