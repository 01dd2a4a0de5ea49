package cmd

import (
	"fmt"
	"os"

	"github.com/encodeous/packetsim/mock"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// topoCmd represents the topo command
var topoCmd = &cobra.Command{
	Use:   "topo",
	Short: "Write a starter topology file",
	Long:  `Writes the built-in 6-node topology to the configured path as a starting point for editing.`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("%s already exists, not overwriting\n", configPath)
			os.Exit(1)
		}
		cfg := mock.DefaultSimCfg()
		out, err := yaml.Marshal(&cfg)
		if err != nil {
			panic(err)
		}
		err = os.WriteFile(configPath, out, 0644)
		if err != nil {
			panic(err)
		}
		fmt.Printf("wrote %s\n", configPath)
	},
}

func init() {
	rootCmd.AddCommand(topoCmd)
}
