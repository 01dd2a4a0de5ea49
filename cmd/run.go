package cmd

import (
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/encodeous/packetsim/core"
	"github.com/encodeous/packetsim/mock"
	"github.com/encodeous/packetsim/state"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulator",
	Long: `Runs the simulation engine with the given topology and logs every engine
event. With --demo, the built-in 6-node topology is used and random traffic
is injected continuously.`,
	Run: func(cmd *cobra.Command, args []string) {
		demo, _ := cmd.Flags().GetBool("demo")

		var cfg state.SimCfg
		if demo {
			cfg = mock.DefaultSimCfg()
		} else {
			file, err := os.ReadFile(configPath)
			if err != nil {
				panic(err)
			}
			err = yaml.Unmarshal(file, &cfg)
			if err != nil {
				panic(err)
			}
		}
		if err := state.ConfigValidator(&cfg); err != nil {
			panic(err)
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}
		logPath, _ := cmd.Flags().GetString("log")

		if addr, _ := cmd.Flags().GetString("debug-addr"); addr != "" {
			// serves expvar and the /debug/metrics endpoint
			go func() {
				err := http.ListenAndServe(addr, nil)
				if err != nil {
					slog.Error("debug server failed", "error", err)
				}
			}()
		}

		ready := make(chan *state.State, 1)
		if demo {
			go demoTraffic(ready)
		}

		err := core.Start(cfg, level, logPath, nil, ready)
		if err != nil {
			panic(err)
		}
	},
}

// demoTraffic keeps a trickle of random packets flowing once the engine is up.
func demoTraffic(ready <-chan *state.State) {
	s := <-ready
	ids := s.Cfg.NodeIds()
	if len(ids) < 2 {
		return
	}
	s.RepeatTask(func(st *state.State) error {
		src := ids[rand.IntN(len(ids))]
		dst := ids[rand.IntN(len(ids))]
		if src == dst {
			return nil
		}
		_, err := core.Get[*core.Driver](st).CreatePacket(st, src, dst, state.DefaultPacketSize)
		if err != nil {
			st.Log.Warn("demo packet rejected", "error", err)
		}
		return nil
	}, 2*time.Second)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().String("log", "", "Also write logs to this file")
	runCmd.Flags().Bool("demo", false, "Run the built-in demo topology with generated traffic")
	runCmd.Flags().String("debug-addr", "", "Serve expvar metrics on this address, e.g. :6060")
}
