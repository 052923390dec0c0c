package cmd

import (
	"github.com/latticerun/actorhost/cli/reader"
	"github.com/latticerun/actorhost/cli/render"
	"github.com/urfave/cli/v2"
)

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single entity.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a single entity (instance, host)",
		Subcommands: []*cli.Command{
			inspectInstanceCommand(),
			inspectHostCommand(),
		},
	}
}

func inspectInstanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "instance",
		Usage:     "Inspect an actor instance by public key",
		ArgsUsage: "<public-key>",
		Flags:     TUIReadOnlyFlags(),
		Action:    inspectInstanceAction,
	}
}

func inspectInstanceAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("public-key required", 1)
	}
	publicKey := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	resp, err := reader.InspectInstance(publicKey)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_instance", resp)
	}

	return r.Render(resp)
}

func inspectHostCommand() *cli.Command {
	return &cli.Command{
		Name:      "host",
		Usage:     "Inspect a host by ID",
		ArgsUsage: "<host-id>",
		Flags:     TUIReadOnlyFlags(),
		Action:    inspectHostAction,
	}
}

func inspectHostAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("host-id required", 1)
	}
	hostID := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	resp, err := reader.InspectHost(hostID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_host", resp)
	}

	return r.Render(resp)
}
