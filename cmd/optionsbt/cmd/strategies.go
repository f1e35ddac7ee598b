package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the registered entry-signal strategies",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available strategies:")
		fmt.Println("  directional       intraday momentum (20-observation mean, 0.5% band)")
		fmt.Println("  mean-reversion    intraday mean reversion (30-observation mean, 0.5% band)")
		fmt.Println("  semi-directional  momentum-confirmed mean reversion (0.3% band)")
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
