// Command rdb-controller is the developer-facing side of the
// protocol: it listens for one debuggee connection and drives the
// `?>` prompt loop, optionally reporting through session recording,
// metrics, the live dashboard, and the endpoint registry.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/glyphlang/rdb/pkg/config"
	"github.com/glyphlang/rdb/pkg/controller"
	"github.com/glyphlang/rdb/pkg/livewatch"
	"github.com/glyphlang/rdb/pkg/metrics"
	"github.com/glyphlang/rdb/pkg/proto"
	"github.com/glyphlang/rdb/pkg/registry"
	"github.com/glyphlang/rdb/pkg/sessionlog"
	"github.com/glyphlang/rdb/pkg/tracing"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := config.DefaultControllerFlags()
	if rc, err := config.LoadRC(".rdbrc"); err == nil {
		flags = rc.Apply(flags)
		if rc.NoColor {
			color.NoColor = true
		}
	}

	root := &cobra.Command{
		Use:           "rdb-controller",
		Short:         "Remote debugger controller",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(flags)
		},
	}
	root.Flags().StringVarP(&flags.Addr, "addr", "a", flags.Addr, "listen address")
	root.Flags().IntVarP(&flags.Port, "port", "p", flags.Port, "listen port")
	root.Flags().StringVar(&flags.SessionLogPath, "session-log", flags.SessionLogPath, "SQLite path to record BR/command history (empty disables)")
	root.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", flags.MetricsAddr, "address to serve /metrics on (empty disables)")
	root.Flags().StringVar(&flags.DashboardAddr, "dashboard-addr", flags.DashboardAddr, "address to serve the live websocket dashboard on (empty disables)")
	root.Flags().StringVar(&flags.RegistryAddr, "registry-addr", flags.RegistryAddr, "Redis address for the endpoint registry (empty disables)")
	root.Flags().StringVar(&flags.Label, "label", flags.Label, "this session's label in the endpoint registry")
	root.Flags().BoolVar(&flags.TracingEnabled, "tracing", flags.TracingEnabled, "emit an OpenTelemetry span per command round-trip")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid flag! Usage: rdb-controller [-a<ip>] [-p<port>]")
		return 1
	}
	return exitCode
}

var exitCode int

func serve(flags config.ControllerFlags) error {
	ep := flags.Endpoint()
	ln, err := net.Listen("tcp", ep.String())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Socket or protocol error!")
		exitCode = 1
		return nil
	}
	defer ln.Close()

	ctx := context.Background()
	obs, cleanup := buildObservability(ctx, flags, ep.String())
	defer cleanup()

	fmt.Fprintf(os.Stdout, "listening on %s, waiting for debuggee...\n", ep)
	nc, err := ln.Accept()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Socket or protocol error!")
		exitCode = 1
		return nil
	}
	defer nc.Close()

	if obs.Metrics != nil {
		obs.Metrics.SessionAttached()
		defer obs.Metrics.SessionDetached()
	}

	conn := proto.NewConn(nc)
	repl := controller.NewREPL(conn, os.Stdin, os.Stdout, os.Stderr).WithObservability(obs)
	exitCode = repl.Run()
	return nil
}

// buildObservability wires up whichever domain-stack components the
// flags ask for; every piece is independently optional, so a bare
// `rdb-controller` with no extra flags builds a zero-value
// Observability that makes every REPL hook a no-op.
func buildObservability(ctx context.Context, flags config.ControllerFlags, addr string) (controller.Observability, func()) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	obs := controller.Observability{SessionID: uuid.NewString()}

	if flags.SessionLogPath != "" {
		log, err := sessionlog.Open(ctx, flags.SessionLogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rdb-controller: session log disabled: %v\n", err)
		} else {
			obs.Log = log
			closers = append(closers, func() { log.Close() })
		}
	}

	if flags.MetricsAddr != "" {
		m := metrics.New(metrics.DefaultConfig())
		obs.Metrics = m
		srv := &http.Server{Addr: flags.MetricsAddr, Handler: promHandler(m)}
		go srv.ListenAndServe()
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		})
	}

	if flags.DashboardAddr != "" {
		dash := livewatch.NewDashboard()
		obs.Dashboard = dash
		srv := &http.Server{Addr: flags.DashboardAddr, Handler: dash}
		go srv.ListenAndServe()
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		})
	}

	if flags.RegistryAddr != "" && flags.Label != "" {
		reg := registry.New(flags.RegistryAddr, 0)
		if err := reg.Remember(ctx, flags.Label, flags.Addr, flags.Port, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "rdb-controller: registry update failed: %v\n", err)
		}
		closers = append(closers, func() { reg.Close() })
	}

	if flags.TracingEnabled {
		tp, err := tracing.Init(tracing.Config{ServiceName: "rdb-controller", SamplingRate: 1.0, Enabled: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "rdb-controller: tracing disabled: %v\n", err)
		} else {
			closers = append(closers, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				tp.Shutdown(shutdownCtx)
			})
		}
	}

	return obs, cleanup
}

func promHandler(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
