// Package launcher wires the dvel CLI: global logging configuration and the
// demo/upload/download commands over the ledger core and the storage
// subsystem.
package launcher

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/dvel-foundation/go-dvel/flags"
)

var app = flags.NewApp()

func init() {
	app.Flags = flags.CommonFlags()
	app.Before = setupLogging
	app.Commands = []cli.Command{
		demoCommand,
		uploadCommand,
		downloadCommand,
	}
}

// Launch parses the arguments and runs the selected command.
func Launch(args []string) error {
	return app.Run(args)
}
