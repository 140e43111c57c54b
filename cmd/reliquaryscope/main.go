package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reliquaryScope/internal/chain"
	"reliquaryScope/internal/config"
	"reliquaryScope/internal/model"
	"reliquaryScope/internal/pricefeed"
	"reliquaryScope/internal/pricing"
	"reliquaryScope/internal/reliquary"
	"reliquaryScope/internal/service"
	"reliquaryScope/internal/storage"
	"reliquaryScope/internal/storage/postgres"
	"reliquaryScope/internal/valuation"
)

func main() {
	root := &cobra.Command{
		Use:          "reliquaryscope",
		Short:        "Reliquary staking protocol valuation engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "chain RPC URL")
	root.PersistentFlags().Uint64("chain-id", config.OptimismChainID, "deployment chain id")
	root.PersistentFlags().String("variant", "reliquary", "product variant (reliquary, autobribes)")
	root.PersistentFlags().Int("version", 2, "deployment schema version")
	root.PersistentFlags().String("feed-base-url", "https://api.dexscreener.com/latest/dex/pairs/optimism", "price feed base URL")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch one snapshot and print it as JSON",
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().String("user", "", "wallet address for position data")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the snapshot periodically and persist pool metrics",
		RunE:  runWatch,
	}
	watchCmd.Flags().String("user", "", "wallet address for position data")
	watchCmd.Flags().Duration("refresh-interval", 30*time.Second, "refresh cadence")
	watchCmd.Flags().String("out", "./data/pool_metrics.jsonl", "pool metrics JSONL path")
	watchCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for pool metrics")
	watchCmd.Flags().String("metrics-addr", "", "optional prometheus listen address")

	relicsCmd := &cobra.Command{
		Use:   "relics",
		Short: "Enumerate all minted relics and print them as JSON",
		RunE:  runRelics,
	}
	relicsCmd.Flags().Int("max-relics", 150, "enumeration cap")

	root.AddCommand(snapshotCmd, watchCmd, relicsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// stack is the wired read path shared by every subcommand.
type stack struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *chain.Client
	reader   *reliquary.Reader
	contract common.Address
}

func buildStack(ctx context.Context, cmd *cobra.Command) (*stack, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	variant, err := config.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	contract, err := config.ContractAddress(cfg.ChainID, variant, cfg.Version)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	feed := pricefeed.NewClient(pricefeed.ClientConfig{BaseURL: cfg.FeedBaseURL}, logger)
	resolver := pricing.NewResolver(client, feed, config.BalancerVault, logger)

	readerCfg := reliquary.DefaultConfig()
	if cfg.MaxRelics > 0 {
		readerCfg.MaxRelics = cfg.MaxRelics
	}
	reader := reliquary.NewReader(client, resolver, contract, cfg.ChainID, readerCfg, logger)

	return &stack{cfg: cfg, logger: logger, client: client, reader: reader, contract: contract}, nil
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	raw, err := s.reader.ReadProtocol(ctx)
	if err != nil {
		return err
	}

	var user *model.UserData
	if s.cfg.UserAddress != "" {
		user, err = s.reader.ReadUser(ctx, common.HexToAddress(s.cfg.UserAddress), raw.Pools)
		if err != nil {
			return err
		}
	}

	return printJSON(valuation.BuildSnapshot(raw, s.cfg.ChainID, user, nil, time.Now()))
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	sinks := []service.MetricsWriter{storage.NewJsonlStorage(s.cfg.Out)}
	if s.cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, s.cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	registry := prometheus.NewRegistry()
	metrics := service.NewMetrics(registry)
	if s.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer server.Close()
	}

	session := service.StaticSession{Chain: s.cfg.ChainID}
	if s.cfg.UserAddress != "" {
		session.User = common.HexToAddress(s.cfg.UserAddress)
	}

	svc := service.New(service.Options{
		Reader:   s.reader,
		Session:  session,
		ChainID:  s.cfg.ChainID,
		Interval: s.cfg.RefreshInterval,
		Sinks:    sinks,
		Metrics:  metrics,
		Logger:   s.logger,
	})

	s.logger.Info("watch start",
		zap.String("rpc", s.cfg.RPCURL),
		zap.Uint64("chain_id", s.cfg.ChainID),
		zap.String("contract", s.contract.Hex()),
		zap.Duration("refresh_interval", s.cfg.RefreshInterval),
		zap.String("out", s.cfg.Out),
	)

	if err := svc.Refresh(ctx); err != nil {
		return err
	}
	return svc.Run(ctx)
}

func runRelics(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	raw, err := s.reader.ReadProtocol(ctx)
	if err != nil {
		return err
	}
	relics, err := s.reader.ReadAllRelics(ctx)
	if err != nil {
		return err
	}

	snapshot := valuation.BuildSnapshot(raw, s.cfg.ChainID, nil, relics, time.Now())
	return printJSON(valuation.ActiveRelics(snapshot.AllRelics))
}

func (s *stack) close() {
	s.client.Close()
	_ = s.logger.Sync()
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
