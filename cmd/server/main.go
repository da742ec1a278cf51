package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/shreeharini-261/ARIVAI-Research/internal/api"
	"github.com/shreeharini-261/ARIVAI-Research/internal/codec"
	"github.com/shreeharini-261/ARIVAI-Research/internal/config"
	"github.com/shreeharini-261/ARIVAI-Research/internal/orchestrator"
	"github.com/shreeharini-261/ARIVAI-Research/internal/state"
)

const shutdownTimeout = 10 * time.Second

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, cfg config.Config) error {
	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	gen, closeGen, err := cfg.NewGenerator(ctx)
	if err != nil {
		return err
	}
	defer closeGen()

	lab, err := orchestrator.NewOrchestrator(store, gen, cfg.OrchestratorOptions())
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(lab, cfg.Sampling(), cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("[SERVER] http listening addr=%s db=%s", cfg.HTTPAddr, cfg.DBPath)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var grpcSrv *grpc.Server
	if cfg.CodecListenAddr != "" {
		grpcSrv = sidecarServer(gen)
		lis, err := net.Listen("tcp", cfg.CodecListenAddr)
		if err != nil {
			return err
		}
		g.Go(func() error {
			log.Printf("[SERVER] generation sidecar listening addr=%s", cfg.CodecListenAddr)
			return grpcSrv.Serve(lis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Printf("[SERVER] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// #endregion run

// #region sidecar
// sidecarServer shares this process's generator with other lab processes
// and reports SERVING on the standard health service.
func sidecarServer(gen codec.Generator) *grpc.Server {
	srv := grpc.NewServer()
	codec.RegisterGenerationServer(srv, gen)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// #endregion sidecar
