package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/encodeous/packetsim/perf"
	"github.com/encodeous/packetsim/state"
	"github.com/encodeous/tint"
	"github.com/iti/rngstream"
	slogmulti "github.com/samber/slog-multi"
)

// Start builds the simulation from cfg and runs its main loop until the
// context is cancelled. All shared-state access is serialized through the
// dispatch channel, so one packet step, one topology mutation and one
// congestion refresh pass are always mutually exclusive.
//
// sink may be nil, in which case events are logged. ready, when not nil,
// receives the engine state just before the loop starts, for callers that
// need a Handle on it; give it capacity so the send never blocks startup.
func Start(cfg state.SimCfg, logLevel slog.Level, logPath string, sink state.Sink, ready chan<- *state.State) error {
	if err := state.ConfigValidator(&cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	dispatch := make(chan func(s *state.State) error, 128)

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: "sim",
		}),
	}
	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			cancel(err)
			return err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			cancel(err)
			return err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}
	logger := slog.New(slogmulti.Fanout(handlers...))

	seed := cfg.RngSeed
	if seed == "" {
		seed = "packetsim"
	}

	s := state.State{
		Nodes:    make(map[state.NodeId]*state.Node),
		InFlight: make(map[state.PacketId]*state.Packet),
		Modules:  make(map[string]state.SimModule),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			Cfg:             cfg,
			Log:             logger,
			Rand:            rngstream.New(seed),
		},
	}
	if sink == nil {
		sink = &slogSink{log: logger}
	}
	s.Sink = sink

	if err := initModules(&s); err != nil {
		cancel(err)
		return err
	}

	BuildTopology(&s, cfg)

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			s.Cancel(errors.New("received shutdown signal"))
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()

	s.Log.Info("simulation initialized", "nodes", len(s.Nodes), "edges", len(s.Edges))
	if ready != nil {
		ready <- &s
	}
	return MainLoop(&s, dispatch)
}

// BuildTopology populates nodes and edges from the config and computes the
// initial routing tables.
func BuildTopology(s *state.State, cfg state.SimCfg) {
	for _, nc := range cfg.Nodes {
		n := AddNode(s, nc.Id, nc.X, nc.Y)
		n.ManualCongestion = clamp01(nc.Congestion)
	}
	edges, _ := state.ParseGraph(cfg.Graph, cfg.NodeIds())
	for _, e := range edges {
		AddEdge(s, e.V1, e.V2)
	}
	s.RandomTraffic = cfg.RandomTraffic
	RecomputeRoutingTables(s)
}

func initModules(s *state.State) error {
	modules := []state.SimModule{
		&Driver{},
	}
	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a registered module by type.
func Get[T state.SimModule](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	for {
		select {
		case fun := <-dispatch:
			if fun == nil {
				goto endLoop
			}
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > time.Millisecond*4 {
				s.Log.Warn("dispatch took a long time!",
					"fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(),
					"elapsed", elapsed, "len", len(dispatch))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return nil
}

func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	s.Log.Info("cleaning up modules")
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during Stop", "module", moduleName, "error", err)
		}
	}
	s.Log.Info("stopped")
}
