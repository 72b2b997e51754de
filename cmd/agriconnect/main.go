package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Set via linker flags.
var (
	version   = "dev"
	gitCommit = ""
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "path to the YAML config file",
	EnvVars: []string{"AGRICONNECT_CONFIG"},
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "agriconnect",
		Usage:   "multi-agent farmer assistant: discovery, gateway, specialists and trade coordination",
		Version: versionString(),
		Flags:   []cli.Flag{configFlag},
		Commands: []*cli.Command{
			commandDiscovery,
			commandGateway,
			commandSpecialist,
			commandTradeAgent,
			commandAsk,
			commandTrade,
			commandVersion,
		},
	}
}

func versionString() string {
	if gitCommit == "" {
		return version
	}
	return version + "-" + gitCommit
}

var commandVersion = &cli.Command{
	Name:  "version",
	Usage: "print the version",
	Action: func(c *cli.Context) error {
		fmt.Fprintf(c.App.Writer, "agriconnect %s\n", versionString())
		return nil
	},
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
