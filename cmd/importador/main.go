package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/importar-info/importador/api"
	"github.com/importar-info/importador/cache"
	"github.com/importar-info/importador/config"
	"github.com/importar-info/importador/fetch"
	"github.com/importar-info/importador/llm"
	"github.com/importar-info/importador/scrape"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	initLogger(cfg.Log)

	slog.Info("importador starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetchOrder", cfg.Fetch.Order,
	)

	fetchers := buildFetchers(cfg)
	if len(fetchers) == 0 {
		slog.Error("no usable fetch strategies configured", "order", cfg.Fetch.Order)
		os.Exit(1)
	}
	chain := fetch.NewChain(fetchers, cfg.Fetch.MinHTMLLength)

	ai := llm.NewClient(&http.Client{Timeout: cfg.LLM.Timeout}, cfg.LLM.APIKey, cfg.LLM.Models)
	if !ai.Enabled() {
		slog.Warn("no Gemini API key configured, AI extraction disabled")
	}

	sc := scrape.New(chain, ai, cfg)
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)

	startTime := time.Now()
	router := api.NewRouter(sc, cc, cfg, ai.Enabled(), startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete. A scrape in its
	// settle wait simply gets cut off.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("importador stopped")
}

// buildFetchers instantiates the fetch strategies named in the
// configured order. Strategies missing their credentials or unknown
// names are skipped with a warning rather than failing startup.
func buildFetchers(cfg *config.Config) []fetch.Fetcher {
	var fetchers []fetch.Fetcher
	for _, name := range cfg.Fetch.Order {
		switch name {
		case config.StrategyBrowserLocal:
			fetchers = append(fetchers, fetch.NewBrowserFetcher(cfg.Browser, cfg.Fetch))
		case config.StrategyBrowserHosted:
			fetchers = append(fetchers, fetch.NewHeadlessFetcher(cfg.Browser, cfg.Fetch))
		case config.StrategyHTTPFallback:
			fetchers = append(fetchers, fetch.NewHTTPFetcher(cfg.Fetch))
		case config.StrategyProxy:
			if cfg.Proxy.APIKey == "" {
				slog.Warn("proxy strategy configured without SCRAPER_API_KEY, skipping")
				continue
			}
			fetchers = append(fetchers, fetch.NewProxyFetcher(cfg.Proxy))
		default:
			slog.Warn("unknown fetch strategy, skipping", "strategy", name)
		}
	}
	return fetchers
}

// initLogger configures slog based on the LogConfig. Text format uses
// tint for readable local development output; everything else emits
// JSON lines.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
