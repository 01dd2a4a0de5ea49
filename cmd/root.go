package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath = "topology.yaml"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "packetsim",
	Short: "Packet routing & congestion simulator",
	Long: `Packetsim simulates packet-switched routing over a small mutable topology.
Nodes keep shortest-path routing tables, packets travel hop by hop, and every
hop is subject to congestion-dependent delay, probabilistic drops and
congestion-aware rerouting.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "topology", "t", configPath, "topology config file")
}
