package cmd

import (
	"fmt"

	"github.com/josephlewis42/myshell/core/shell"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var treeOneLine bool

// treeCmd shows how a line is parsed without running it
var treeCmd = &cobra.Command{
	Use:   "tree LINE",
	Short: "Print the command tree a line parses to.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		node, err := shell.Parse(args[0])
		switch {
		case err != nil:
			return err
		case node == nil:
			return nil
		case treeOneLine:
			fmt.Fprintln(cmd.OutOrStdout(), node)
			return nil
		}

		out, err := yaml.Marshal(node)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().BoolVar(&treeOneLine, "oneline", false, "Print the compact one line form.")
}
