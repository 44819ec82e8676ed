package commands

import (
	"github.com/spf13/cobra"

	cmdutil "github.com/argoproj-labs/resourcelens/cmd/util"
	"github.com/argoproj-labs/resourcelens/pkg/diff"
)

// NewDiffCommand returns a new instance of the `diff` command
func NewDiffCommand() *cobra.Command {
	var opts diffOptions
	command := &cobra.Command{
		Use:   "diff LEFT RIGHT",
		Short: "Compare two manifest files",
		Example: `  # Compare two manifests, ignoring server managed fields
  resourcelens diff staging/deployment.yaml production/deployment.yaml

  # Read the right side from stdin and align arrays by content
  kubectl get deploy web -o yaml | resourcelens diff deployment.yaml - --array-alignment lcs`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			engineOpts, err := opts.engineOptions()
			if err != nil {
				return err
			}
			left, err := cmdutil.ReadManifest(args[0], c.InOrStdin())
			if err != nil {
				return err
			}
			right, err := cmdutil.ReadManifest(args[1], c.InOrStdin())
			if err != nil {
				return err
			}
			res := diff.NewEngine(engineOpts...).Compare(left, right, args[0], args[1])
			return cmdutil.PrintComparison(c.OutOrStdout(), res, opts.output)
		},
	}
	opts.addFlags(command)
	return command
}
