package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ttlform/internal/ingest"
	"ttlform/internal/logging"
	"ttlform/internal/store"
)

var serveAddr string

// serveCmd runs the ingestion backend
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion backend",
	Long: `Serves POST <ingest_path> (default /mmm/api/ingest-ttl), /healthz and
/metrics, storing accepted documents in the local SQLite triple store.

With server.nats_enabled the same ingest path also answers NATS requests on
server.subject.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Store.DatabasePath, logs.Get(logging.CategoryStore))
	if err != nil {
		return err
	}
	defer st.Close()

	return serve(ctx, st)
}

// serve blocks until ctx is cancelled or a listener fails.
func serve(ctx context.Context, st *store.Store) error {
	log := logs.Get(logging.CategoryIngest)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := ingest.NewService(st,
		ingest.NewAuthenticator(cfg.Server.TokenSecret, cfg.Server.RequireAuth),
		ingest.NewMetrics(reg),
		log)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.ListenAddr
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ingest.ListenAndServe(ctx, addr, ingest.Handler(svc, cfg.Server.IngestPath, reg), log)
	})

	if cfg.Server.NATSEnabled {
		nc, err := nats.Connect(cfg.Server.NATSURL, nats.Name("ttlform-ingest"))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Server.NATSURL, err)
		}
		defer nc.Drain()

		responder := ingest.NewResponder(nc, cfg.Server.Subject, svc, log)
		g.Go(func() error {
			return responder.Run(ctx)
		})
	}

	log.Info("ingestion backend started",
		zap.String("addr", addr),
		zap.String("path", cfg.Server.IngestPath),
		zap.Bool("nats", cfg.Server.NATSEnabled))

	return g.Wait()
}
