package commands

import (
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	cmdutil "github.com/argoproj-labs/resourcelens/cmd/util"
	"github.com/argoproj-labs/resourcelens/common"
	"github.com/argoproj-labs/resourcelens/pkg/metrics"
	"github.com/argoproj-labs/resourcelens/pkg/resources"
	"github.com/argoproj-labs/resourcelens/util/cli"
	"github.com/argoproj-labs/resourcelens/util/env"
	"github.com/argoproj-labs/resourcelens/util/kube"
)

type gateway = resources.Gateway[*unstructured.Unstructured]

// gatewayFactory returns the gateway of a kubeconfig context along with the name of
// the context actually used.
type gatewayFactory func(kubeconfig, context string, discoveryTTL time.Duration) (gateway, string, error)

func newKubeGateway(kubeconfig, context string, discoveryTTL time.Duration) (gateway, string, error) {
	config, name, err := cli.RESTConfig(cli.NewClientConfig(kubeconfig, context), context)
	if err != nil {
		return nil, "", err
	}
	g, err := kube.NewGatewayForConfig(config, discoveryTTL, newLogger().WithValues("context", name))
	if err != nil {
		return nil, "", err
	}
	return g, name, nil
}

// NewCompareCommand returns a new instance of the `compare` command
func NewCompareCommand() *cobra.Command {
	return newCompareCommand(newKubeGateway)
}

func newCompareCommand(newGateway gatewayFactory) *cobra.Command {
	var (
		diffOpts       diffOptions
		clientOpts     clientOptions
		kubeconfig     string
		leftContext    string
		rightContext   string
		leftNamespace  string
		rightNamespace string
		discoveryTTL   time.Duration
		printMetrics   bool
	)
	command := &cobra.Command{
		Use:   "compare KIND [NAME]",
		Short: "Compare live resources across namespaces or clusters",
		Example: `  # Compare a deployment between two namespaces
  resourcelens compare deployment web --left-namespace staging --right-namespace production

  # Compare every config map of a namespace between two clusters
  resourcelens compare configmaps --left-context dev --right-context prod --left-namespace app --right-namespace app`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			engineOpts, err := diffOpts.engineOptions()
			if err != nil {
				return err
			}
			config, err := clientOpts.config()
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			retryMetrics := metrics.NewRetryMetrics(registry)
			collector := metrics.NewCacheCollector()
			registry.MustRegister(collector)

			newManager := func(context string) (*resources.Manager[*unstructured.Unstructured], error) {
				g, name, err := newGateway(kubeconfig, context, discoveryTTL)
				if err != nil {
					return nil, err
				}
				cfg := config
				cfg.Retry = cfg.Retry.WithOnRetry(retryMetrics.Observer(name))
				m := resources.NewManager(name, g, cfg, newLogger())
				collector.Add(m)
				return m, nil
			}
			left, err := newManager(leftContext)
			if err != nil {
				return err
			}
			defer left.Dispose()
			right := left
			if rightContext != leftContext {
				if right, err = newManager(rightContext); err != nil {
					return err
				}
				defer right.Dispose()
			}

			kind := args[0]
			if len(args) == 2 {
				res, err := resources.Compare(c.Context(), left, right,
					resources.Ref{Kind: kind, Name: args[1], Namespace: leftNamespace},
					resources.Ref{Kind: kind, Name: args[1], Namespace: rightNamespace},
					engineOpts...)
				if err != nil {
					return err
				}
				err = cmdutil.PrintComparison(c.OutOrStdout(), res, diffOpts.output)
				if err != nil {
					return err
				}
			} else {
				if leftNamespace == rightNamespace && left == right {
					return fmt.Errorf("comparing %s of namespace %q with itself: set --right-namespace or --right-context", kind, leftNamespace)
				}
				res, err := resources.CompareNamespaces(c.Context(), left, right, kind, leftNamespace, rightNamespace, engineOpts...)
				if err != nil {
					return err
				}
				if err := cmdutil.PrintComparisons(c.OutOrStdout(), res, diffOpts.output); err != nil {
					return err
				}
			}
			if printMetrics {
				return metrics.WriteText(c.ErrOrStderr(), registry)
			}
			return nil
		},
	}
	diffOpts.addFlags(command)
	clientOpts.addFlags(command)
	cli.AddKubeconfigFlag(command, &kubeconfig)
	command.Flags().StringVar(&leftContext, "left-context", "", "Kubeconfig context of the left side. Defaults to the current context")
	command.Flags().StringVar(&rightContext, "right-context", "", "Kubeconfig context of the right side. Defaults to the current context")
	command.Flags().StringVar(&leftNamespace, "left-namespace", "default", "Namespace of the left side")
	command.Flags().StringVar(&rightNamespace, "right-namespace", "default", "Namespace of the right side")
	command.Flags().DurationVar(&discoveryTTL, "discovery-cache-ttl", env.ParseDurationFromEnv(common.EnvDiscoveryCacheTTL, kube.DefaultDiscoveryCacheTTL, 0, math.MaxInt64), "How long discovered API resources are reused")
	command.Flags().BoolVar(&printMetrics, "print-metrics", false, "Print cache and retry metrics to stderr once done")
	return command
}
