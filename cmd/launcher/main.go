package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/launchstate/launchpad-go/chainstate"
	"github.com/launchstate/launchpad-go/cmd/launcher/config"
	"github.com/launchstate/launchpad-go/deployer"
	"github.com/launchstate/launchpad-go/protocols/erc20"
	"github.com/launchstate/launchpad-go/protocols/locker"
	"github.com/launchstate/launchpad-go/protocols/swaprouter"
	"github.com/launchstate/launchpad-go/protocols/uniswapv3"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// create the log handler
	rootLogHandler := slog.NewJSONHandler(os.Stdout, nil)
	close := func() {
		os.Exit(1)
	}

	rootLogger := slog.New(rootLogHandler)
	prometheusRegistry := prometheus.NewRegistry()

	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		close()
	}

	// Create a context that cancels when the OS sends an interrupt (Ctrl+C) or termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	world := chainstate.NewWorld()
	tokens := erc20.NewRegistry(world)
	pools := uniswapv3.NewFactory(world, cfg.PoolFactoryAddress)

	positions, err := uniswapv3.NewPositionManager(uniswapv3.PositionManagerConfig{
		World:   world,
		Address: cfg.PositionManagerAddress,
		Factory: pools,
		Tokens:  tokens,
	})
	if err != nil {
		rootLogger.Error("Failed to initialize position manager", "error", err)
		close()
	}

	d, err := deployer.New(deployer.Config{
		Logger:              rootLogger.With("component", "deployer"),
		Registry:            prometheusRegistry,
		World:               world,
		Tokens:              tokens,
		Factory:             pools,
		Positions:           positions,
		Lockers:             locker.NewFactory(world, cfg.LockerFactoryAddress),
		Router:              swaprouter.NewRouter(pools, tokens),
		Address:             cfg.DeployerAddress,
		Owner:               cfg.Owner,
		WETH:                cfg.WETH,
		TaxCollector:        cfg.TaxCollector,
		DefaultLockDuration: cfg.LockDurationSeconds,
		ProtocolFee:         cfg.ProtocolFee,
		SaltIterationCap:    cfg.SaltIterationCap,
	})
	if err != nil {
		rootLogger.Error("Failed to initialize deployer", "error", err)
		close()
	}

	rpcServer := rpc.NewServer()
	defer rpcServer.Stop()
	if err := rpcServer.RegisterName("launchpad", deployer.NewAPI(d)); err != nil {
		rootLogger.Error("Failed to register RPC API", "error", err)
		close()
	}

	mux := http.NewServeMux()
	mux.Handle("/rpc", rpcServer)
	mux.Handle("/metrics", promhttp.HandlerFor(prometheusRegistry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}
	go func() {
		rootLogger.Info("Serving JSON-RPC and metrics", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rootLogger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	for {
		select {
		case evt := <-d.Events():
			rootLogger.Info("Token launched",
				"token", evt.Token.Hex(),
				"symbol", evt.Symbol,
				"position", evt.PositionID,
				"locker", evt.Locker.Hex(),
			)
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				rootLogger.Error("HTTP shutdown failed", "error", err)
			}
			return
		}
	}
}

func loadConfig() (*config.LauncherConfig, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}
