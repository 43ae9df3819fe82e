package main

import (
	"github.com/danielpatrickdp/agent-rewards/internal/transport"
	"github.com/spf13/cobra"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the functions a profile registers",
	Long: `List every function the active profile registers, in declaration
order. The profile composite, if any, is marked with *.

Examples:
  rewards functions
  rewards functions --profile research.yaml -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, b, err := loadProfile()
		if err != nil {
			return err
		}

		var fns []transport.FunctionInfo
		if p.Composite != nil {
			c, err := p.BuildComposite(b)
			if err != nil {
				return err
			}
			fns = append(fns, transport.FunctionInfo{
				Name: c.Name(), Function: c.Name(), Description: c.Description(), Default: true,
			})
		}
		for _, name := range b.Names() {
			fn, _ := b.Get(name)
			fns = append(fns, transport.FunctionInfo{
				Name: name, Function: fn.Name(), Description: fn.Description(),
			})
		}
		return printFunctions(cmd.OutOrStdout(), output, fns)
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
}
