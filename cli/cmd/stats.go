package cmd

import (
	"github.com/latticerun/actorhost/cli/reader"
	"github.com/latticerun/actorhost/cli/render"
	"github.com/urfave/cli/v2"
)

// StatsCommand returns the stats command with subcommands.
// Stats returns aggregated, derived facts.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated statistics (host)",
		Subcommands: []*cli.Command{
			statsHostCommand(),
		},
	}
}

func statsHostCommand() *cli.Command {
	return &cli.Command{
		Name:   "host",
		Usage:  "Show host statistics",
		Flags:  TUIReadOnlyFlags(),
		Action: statsHostAction,
	}
}

func statsHostAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	snapshot := reader.StatsHost()

	if c.Bool("tui") {
		return r.RenderTUI("stats_host", snapshot)
	}

	return r.Render(snapshot)
}
