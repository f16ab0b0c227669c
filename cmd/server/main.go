package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"typed-kv-service/internal/auth"
	"typed-kv-service/internal/config"
	"typed-kv-service/internal/core/service"
	"typed-kv-service/internal/engine"
	grpcadapter "typed-kv-service/internal/grpc"
	"typed-kv-service/internal/httpapi"
	"typed-kv-service/internal/observability"
	"typed-kv-service/internal/server"
	"typed-kv-service/internal/store"
	"typed-kv-service/internal/store/policy"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:], ".env")
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogJSON)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger hclog.Logger) error {
	evict, err := policy.ByName(cfg.EvictionPolicy)
	if err != nil {
		return err
	}
	kvStore := store.New(
		store.WithShards(cfg.Shards),
		store.WithCapacity(cfg.Capacity),
		store.WithPolicy(evict),
	)
	svc := service.New(engine.New(kvStore))

	authn, err := auth.New(cfg.Password, cfg.BcryptCost)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.SweepInterval > 0 {
		sweepLog := logger.Named("sweeper")
		g.Go(func() error {
			sweepLog.Debug("sweeping expired keys", "interval", cfg.SweepInterval)
			return kvStore.RunSweeper(ctx, cfg.SweepInterval)
		})
	}

	respServer := server.New(svc, authn, logger.Named("resp"))
	g.Go(func() error {
		err := respServer.ListenAndServe(cfg.RESPAddr)
		if errors.Is(err, server.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		return respServer.Close()
	})

	if cfg.GRPCAddr != "" {
		grpcLog := logger.Named("grpc")
		grpcServer := grpcadapter.NewServer(grpcadapter.New(svc), authn, grpcLog)
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				return err
			}
			grpcLog.Info("listening", "addr", lis.Addr().String())
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-ctx.Done()
			grpcServer.GracefulStop()
			return nil
		})
	}

	if cfg.HTTPAddr != "" {
		if !logger.IsDebug() && !logger.IsTrace() {
			gin.SetMode(gin.ReleaseMode)
		}
		httpLog := logger.Named("http")
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewRouter(svc, authn, httpLog),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			httpLog.Info("listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	logger.Info("server started",
		"shards", cfg.Shards,
		"capacity", cfg.Capacity,
		"eviction_policy", cfg.EvictionPolicy,
		"auth", authn.Required(),
	)
	return g.Wait()
}
