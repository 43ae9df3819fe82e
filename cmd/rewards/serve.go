package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/history"
	"github.com/danielpatrickdp/agent-rewards/internal/metrics"
	"github.com/danielpatrickdp/agent-rewards/internal/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveNoHistory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC reward service",
	Long: `Serve RewardService over gRPC and Prometheus metrics over HTTP.

Every evaluation is gated with the profile's gate config and recorded
in the history database unless --no-history is set. An empty
--metrics-addr disables the metrics listener.

Examples:
  rewards serve
  rewards serve --listen :50071 --metrics-addr :9471 --profile research.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "gRPC listen address")
	serveCmd.Flags().String("metrics-addr", "", "Prometheus /metrics listen address")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not record evaluations")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	p, b, err := loadProfile()
	if err != nil {
		return err
	}

	m := metrics.Default()
	opts := []transport.Option{
		transport.WithLogger(logger),
		transport.WithMetrics(m),
		transport.WithGate(gate.NewGate(p.GateConfig())),
	}
	if p.Composite != nil {
		c, err := p.BuildComposite(b)
		if err != nil {
			return err
		}
		opts = append(opts, transport.WithDefault(c))
	}
	if !serveNoHistory {
		store, err := history.NewStore(appConfig.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, transport.WithHistory(store))
	}

	lis, err := net.Listen("tcp", appConfig.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", appConfig.ListenAddr, err)
	}
	gs := transport.NewGRPCServer(transport.NewServer(b, opts...))

	errc := make(chan error, 2)
	go func() {
		logger.Info("grpc server listening", "addr", lis.Addr().String(), "profile", p.Name)
		errc <- gs.Serve(lis)
	}()

	var httpSrv *http.Server
	if appConfig.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		httpSrv = &http.Server{Addr: appConfig.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("metrics server listening", "addr", appConfig.MetricsAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errc:
		logger.Error("server stopped", "error", err)
	}

	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}
	gs.GracefulStop()
	return err
}
