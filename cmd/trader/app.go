package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quantrail/quantrail/internal/config"
	"github.com/quantrail/quantrail/internal/dataset"
	"github.com/quantrail/quantrail/internal/journal"
	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/internal/market"
	binanceadapter "github.com/quantrail/quantrail/internal/market/binance"
	"github.com/quantrail/quantrail/internal/market/paper"
	polygonadapter "github.com/quantrail/quantrail/internal/market/polygon"
	"github.com/quantrail/quantrail/internal/metrics"
	"github.com/quantrail/quantrail/internal/notify"
	"github.com/quantrail/quantrail/internal/runtime"
	"github.com/quantrail/quantrail/internal/strategy"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"go.uber.org/zap"
)

// App holds the wired runtime plus everything that needs teardown.
type App struct {
	Runtime  *runtime.Runtime
	registry *prometheus.Registry
	log      *logger.Logger

	closers []func() error
}

// buildApp assembles adapter, strategy, notifier, journal, and metrics into
// a ready-to-run runtime.
func buildApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{
		registry: prometheus.NewRegistry(),
		log:      log,
	}

	adapter, err := app.buildAdapter(cfg, log)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return nil, err
	}

	opts := []runtime.Option{
		runtime.WithLogger(log),
		runtime.WithMetrics(metrics.New(app.registry)),
		runtime.WithProgressBar(cfg.Mode == config.ModeBacktest),
	}

	if cfg.Notify.DiscordWebhookURL != "" {
		notifier, err := notify.NewDiscordNotifier(cfg.Notify.DiscordWebhookURL, fmt.Sprintf("trader: %s", cfg.Symbol))
		if err != nil {
			return nil, err
		}

		opts = append(opts, runtime.WithNotifier(notifier))
	}

	if cfg.Journal.Path != "" {
		w := journal.NewWriter(cfg.Journal.Path, log)
		if err := w.Initialize(); err != nil {
			return nil, err
		}

		app.closers = append(app.closers, w.Close)
		opts = append(opts, runtime.WithJournal(w))
	}

	rt, err := runtime.New(runtime.Config{
		Symbol:        cfg.Symbol,
		Timeframe:     cfg.Timeframe,
		InitialEquity: cfg.InitialEquity,
		Risk:          cfg.Risk,
		Safety:        cfg.Safety,
	}, adapter, strat, opts...)
	if err != nil {
		return nil, err
	}

	app.Runtime = rt

	return app, nil
}

func (a *App) buildAdapter(cfg *config.Config, log *logger.Logger) (market.Adapter, error) {
	switch cfg.Adapter {
	case config.AdapterPaper:
		p, err := paper.NewAdapter(cfg.Symbol, syntheticBars(cfg.Symbol), log)
		if err != nil {
			return market.Adapter{}, err
		}

		return p.Adapter(), nil

	case config.AdapterDataset:
		src, err := dataset.NewSource(cfg.DataFile, log)
		if err != nil {
			return market.Adapter{}, err
		}

		a.closers = append(a.closers, src.Close)

		// Datasets hold no broker; orders fill against a paper book.
		sim, err := paperExecution(cfg.Symbol, log)
		if err != nil {
			return market.Adapter{}, err
		}

		return market.NewAdapter(src, src, sim)

	case config.AdapterBinance:
		b := binanceadapter.NewAdapter(binanceadapter.Config{
			APIKey:     cfg.Binance.APIKey,
			SecretKey:  cfg.Binance.SecretKey,
			BaseURL:    cfg.Binance.BaseURL,
			UseTestnet: cfg.Binance.UseTestnet,
		}, log)

		return market.NewAdapter(b, b, b)

	case config.AdapterPolygon:
		p, err := polygonadapter.NewAdapter(cfg.Polygon.APIKey, log)
		if err != nil {
			return market.Adapter{}, err
		}

		// Polygon supplies data only; execution is simulated.
		sim, err := paperExecution(cfg.Symbol, log)
		if err != nil {
			return market.Adapter{}, err
		}

		return market.NewAdapter(p, p, sim)

	default:
		return market.Adapter{}, errors.Newf(errors.ErrCodeInvalidAdapter, "unknown adapter %q", cfg.Adapter)
	}
}

// paperExecution returns an always-connected simulated execution handler
// for data-only adapters.
func paperExecution(symbol string, log *logger.Logger) (market.ExecutionHandler, error) {
	sim, err := paper.NewAdapter(symbol, nil, log)
	if err != nil {
		return nil, err
	}

	if err := sim.Connect(context.Background()); err != nil {
		return nil, err
	}

	return sim, nil
}

// ServeMetrics exposes /metrics and /health on the given address until the
// context is cancelled. Serving failures are logged, never fatal.
func (a *App) ServeMetrics(ctx context.Context, addr string) {
	if addr == "" {
		addr = ":9090"
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.log.Info("metrics server listening", zap.String("addr", addr))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()
}

// Close tears down everything buildApp opened.
func (a *App) Close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.log.Warn("cleanup failed", zap.Error(err))
		}
	}
}

// syntheticBars generates a small deterministic series for paper-mode smoke
// runs when no data file is configured.
func syntheticBars(symbol string) []types.MarketData {
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bars := make([]types.MarketData, 0, 390)

	price := 100.0
	for i := 0; i < 390; i++ {
		// Slow drift with a fixed oscillation keeps the series interesting
		// without randomness.
		move := 0.05
		if i%7 >= 4 {
			move = -0.04
		}

		price += move
		bars = append(bars, types.MarketData{
			Symbol: symbol,
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   price - move,
			High:   price + 0.1,
			Low:    price - 0.1,
			Close:  price,
			Volume: 10000,
		})
	}

	return bars
}

func printResult(result *runtime.Result) {
	fmt.Printf("\nBacktest: %s on %s\n", result.Strategy, result.Symbol)
	fmt.Printf("  Initial equity:  %.2f\n", result.InitialEquity)
	fmt.Printf("  Final equity:    %.2f\n", result.FinalEquity)
	fmt.Printf("  Total return:    %.2f%%\n", result.TotalReturn*100)
	fmt.Printf("  Realized PnL:    %.2f\n", result.RealizedPnL)
	fmt.Printf("  Unrealized PnL:  %.2f\n", result.UnrealizedPnL)
	fmt.Printf("  Trades:          %d\n", len(result.Trades))
	fmt.Printf("  Win rate:        %.1f%%\n", result.WinRate*100)
	fmt.Printf("  Max drawdown:    %.2f%%\n", result.MaxDrawdown*100)
	fmt.Printf("  Rejected orders: %d\n", result.RejectedOrders)

	if result.OpenPosition.IsOpen() {
		fmt.Printf("  Open position:   %s %d @ %.2f\n",
			result.OpenPosition.Side, result.OpenPosition.Quantity, result.OpenPosition.EntryPrice)
	}
}
