package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// NewApp creates the base CLI application for the dvel tool.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "dvel"
	app.Usage = "Decentralized Verifiable Event Ledger research tool"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	return app
}

// CommonFlags returns the base set of CLI flags shared across commands.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "log.format",
			Usage: "Log output format (text|json)",
			Value: "text",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "log.color",
			Usage: "Enable colored log output",
		},
		cli.StringFlag{
			Name:  "sentry.dsn",
			Usage: "Report errors to the given Sentry DSN (disabled when empty)",
		},
		cli.StringFlag{
			Name:  "preset",
			Usage: "Configuration preset (default|research|audit)",
			Value: "research",
		},
	}
}
