package commands

import (
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/argoproj-labs/resourcelens/common"
	"github.com/argoproj-labs/resourcelens/util/cli"
	"github.com/argoproj-labs/resourcelens/util/env"
	utillog "github.com/argoproj-labs/resourcelens/util/log"
)

const (
	// cliName is the name of the CLI
	cliName = "resourcelens"
)

// NewCommand returns a new instance of the resourcelens command
func NewCommand() *cobra.Command {
	var (
		logFormat string
		logLevel  string
	)
	command := &cobra.Command{
		Use:   cliName,
		Short: "resourcelens compares Kubernetes resources across files, namespaces and clusters",
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			cli.SetLogFormat(logFormat)
			return cli.SetLogLevel(logLevel)
		},
		Run: func(c *cobra.Command, args []string) {
			c.HelpFunc()(c, args)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	command.AddCommand(NewDiffCommand())
	command.AddCommand(NewCompareCommand())
	command.AddCommand(cli.NewVersionCmd(cliName))

	command.PersistentFlags().StringVar(&logFormat, "logformat", env.StringFromEnv(common.EnvLogFormat, utillog.TextFormat), "Set the logging format. One of: text|json")
	command.PersistentFlags().StringVar(&logLevel, "loglevel", env.StringFromEnv(common.EnvLogLevel, "info"), "Set the logging level. One of: debug|info|warn|error")
	return command
}

// newLogger bridges the process wide logrus logger for the libraries.
func newLogger() logr.Logger {
	return utillog.NewLogrusLogger(logrus.StandardLogger())
}
