// Package cli provides functionality common to the resourcelens commands
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/argoproj-labs/resourcelens/common"
	utillog "github.com/argoproj-labs/resourcelens/util/log"
)

// NewVersionCmd returns a new `version` command to be used as a sub-command to root
func NewVersionCmd(cliName string) *cobra.Command {
	var short bool
	versionCmd := cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			version := common.GetVersion()
			fmt.Fprintf(out, "%s: %s\n", cliName, version)
			if short {
				return
			}
			fmt.Fprintf(out, "  BuildDate: %s\n", version.BuildDate)
			fmt.Fprintf(out, "  GitCommit: %s\n", version.GitCommit)
			fmt.Fprintf(out, "  GitTreeState: %s\n", version.GitTreeState)
			if version.GitTag != "" {
				fmt.Fprintf(out, "  GitTag: %s\n", version.GitTag)
			}
			fmt.Fprintf(out, "  GoVersion: %s\n", version.GoVersion)
			fmt.Fprintf(out, "  Compiler: %s\n", version.Compiler)
			fmt.Fprintf(out, "  Platform: %s\n", version.Platform)
		},
	}
	versionCmd.Flags().BoolVar(&short, "short", false, "print just the version number")
	return &versionCmd
}

// NewClientConfig returns the kubeconfig loader for the given file and context. Empty
// values fall back to the kubectl defaults ($KUBECONFIG, ~/.kube/config, current
// context).
func NewClientConfig(kubeconfig, context string) clientcmd.ClientConfig {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	loadingRules.DefaultClientConfig = &clientcmd.DefaultClientConfig
	loadingRules.ExplicitPath = kubeconfig
	overrides := clientcmd.ConfigOverrides{CurrentContext: context}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &overrides)
}

// RESTConfig loads the REST config of context and returns it along with the name of
// the context actually used.
func RESTConfig(clientConfig clientcmd.ClientConfig, context string) (*rest.Config, string, error) {
	config, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	if context == "" {
		if raw, err := clientConfig.RawConfig(); err == nil {
			context = raw.CurrentContext
		}
	}
	return config, context, nil
}

// AddKubeconfigFlag adds the --kubeconfig flag to cmd.
func AddKubeconfigFlag(cmd *cobra.Command, kubeconfig *string) {
	cmd.PersistentFlags().StringVar(kubeconfig, "kubeconfig", os.Getenv(clientcmd.RecommendedConfigPathEnvVar), "Path to a kube config. Defaults to $KUBECONFIG or ~/.kube/config")
}

// SetLogFormat sets the logrus formatter of the process.
func SetLogFormat(logFormat string) {
	logrus.SetFormatter(utillog.CreateFormatter(logFormat))
}

// SetLogLevel parses and sets a logrus log level
func SetLogLevel(logLevel string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}
