package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/latticerun/actorhost/cli/reader"
	"github.com/latticerun/actorhost/cli/render"
)

// listWarningThreshold is the number of items above which we warn about large output.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ListCommand returns the list command with subcommands.
// List returns thin slices (not inspect-level detail).
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List entities (instances)",
		Subcommands: []*cli.Command{
			listInstancesCommand(),
		},
	}
}

func listInstancesCommand() *cli.Command {
	return &cli.Command{
		Name:   "instances",
		Usage:  "List actor instances hosted on this process",
		Flags:  ReadOnlyFlags(),
		Action: listInstancesAction,
	}
}

func listInstancesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	results := reader.ListInstances()

	if len(results) > listWarningThreshold && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d results.\n\n", len(results))
	}

	return r.Render(results)
}
