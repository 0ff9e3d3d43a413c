package cmd

import (
	"context"
	"fmt"

	"github.com/rubiojr/reposearch/pkg/version"
	"github.com/urfave/cli/v3"
)

// VersionCommand creates the version command
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Println(version.BuildVersion())
			if c.Bool("api") {
				fmt.Printf("api %s\n", version.APIVersion())
			}
			return nil
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "api",
				Usage: "Also print the HTTP API version",
			},
		},
	}
}
