package launcher

import (
	"fmt"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"
)

// verbosityLevels maps the numeric --log.verbosity flag onto logrus levels.
var verbosityLevels = []logrus.Level{
	logrus.FatalLevel,
	logrus.ErrorLevel,
	logrus.WarnLevel,
	logrus.InfoLevel,
	logrus.DebugLevel,
	logrus.TraceLevel,
}

// setupLogging configures the global logger from the CLI flags and attaches
// the optional Sentry hook. It runs before any command action.
func setupLogging(ctx *cli.Context) error {
	switch format := ctx.GlobalString("log.format"); format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors: ctx.GlobalBool("log.color"),
		})
	default:
		return fmt.Errorf("unknown log format: %q", format)
	}

	verbosity := ctx.GlobalInt("log.verbosity")
	if verbosity < 0 || verbosity >= len(verbosityLevels) {
		return fmt.Errorf("log verbosity out of range: %d", verbosity)
	}
	logrus.SetLevel(verbosityLevels[verbosity])

	if dsn := ctx.GlobalString("sentry.dsn"); dsn != "" {
		hook, err := logrus_sentry.NewSentryHook(dsn, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return fmt.Errorf("sentry hook: %v", err)
		}
		logrus.AddHook(hook)
	}

	return nil
}
