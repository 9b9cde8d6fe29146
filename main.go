package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"lobevents/config"
	"lobevents/extractor"
	"lobevents/feed"
	"lobevents/metrics"
	"lobevents/orderbook"
	"lobevents/sink"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "lobevents",
		Usage:     "extract market events and mid-prices from an NDJSON L2 snapshot/delta feed",
		ArgsUsage: "<input.ndjson | ->",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "optional YAML config file"},
			&cli.IntFlag{Name: "max-depth", Value: 50, Usage: "only report events with depth < max-depth"},
			&cli.IntFlag{Name: "index-origin", Usage: "index of the first input line"},
			&cli.StringFlag{Name: "on-malformed", Value: "fail", Usage: "malformed line policy: fail or skip"},
			&cli.IntFlag{Name: "price-decimals", Value: -1, Usage: "round price keys to this many decimals; -1 matches prices exactly"},
			&cli.IntFlag{Name: "max-line-bytes", Value: feed.DefaultMaxLineBytes, Usage: "longest accepted input line"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file, standard output when empty"},
			&cli.StringFlag{Name: "format", Value: "events", Usage: "output lines: events or records"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address while running"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Value: "json", Usage: "json or console"},
		},
		Action: run,
	}
}

// bindFlags copies flags given on the command line over file and env values.
func bindFlags(c *cli.Context, v *viper.Viper) {
	for _, name := range []string{"max-depth", "index-origin", "price-decimals", "max-line-bytes"} {
		if c.IsSet(name) {
			v.Set(key(name), c.Int(name))
		}
	}
	for _, name := range []string{"on-malformed", "output", "format", "metrics-addr", "log-level", "log-format"} {
		if c.IsSet(name) {
			v.Set(key(name), c.String(name))
		}
	}
}

func key(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one input file, got %d arguments", c.NArg())
	}
	path := c.Args().First()

	v := config.New()
	bindFlags(c, v)
	cfg, err := config.Load(v, c.String("config"))
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer stop()
	}

	opts := []extractor.Option{
		extractor.WithMaxDepth(cfg.MaxDepth),
		extractor.WithObserver(recorder),
		extractor.WithLogger(logger),
	}
	if cfg.QuantizePrices() {
		opts = append(opts, extractor.WithPriceKey(orderbook.QuantizedKey(int32(cfg.PriceDecimals))))
	}
	ex := extractor.New(opts...)

	stream, err := extractor.Open(path, ex,
		feed.WithPolicy(cfg.Policy()),
		feed.WithIndexOrigin(cfg.IndexOrigin),
		feed.WithMaxLineBytes(cfg.MaxLineBytes),
		feed.WithLogger(logger),
		feed.WithSkipHook(recorder.ObserveSkip),
	)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	format, _ := sink.ParseFormat(cfg.Format)
	out, err := sink.Create(cfg.Output, format)
	if err != nil {
		return err
	}

	logger.Info("extraction started",
		zap.String("input", path),
		zap.Int("max_depth", cfg.MaxDepth),
		zap.String("on_malformed", cfg.OnMalformed),
	)
	records, events := 0, 0
	err = drain(c.Context, stream, func(r extractor.Record) error {
		records++
		events += len(r.Events)
		return out.Write(r)
	})
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if errors.Is(err, context.Canceled) {
		logger.Warn("extraction interrupted", zap.Int("records", records))
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("extraction finished", zap.Int("records", records), zap.Int("events", events))
	return nil
}

func drain(ctx context.Context, s *extractor.Stream, fn func(extractor.Record) error) error {
	for s.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(s.Record()); err != nil {
			return err
		}
	}
	return s.Err()
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.Encoding = format
	if format == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zc.Build()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
