package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catchup-feed/internal/domain/config"
	hhttp "catchup-feed/internal/handler/http"
	"catchup-feed/internal/handler/http/endpoint"
	"catchup-feed/internal/handler/http/inspector"
	"catchup-feed/internal/handler/http/requestid"
	"catchup-feed/internal/infra/feedfetch"
	"catchup-feed/internal/infra/httpcache"
	"catchup-feed/internal/infra/httpclient"
	"catchup-feed/internal/infra/jsruntime"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/usecase/endpointsvc"
	"catchup-feed/internal/usecase/filters"

	pkgconfig "catchup-feed/pkg/config"
)

func main() {
	logger := initLogger()

	bind := pkgconfig.GetEnvString("RSS_FUNNEL_BIND", ":8080")
	configPath := pkgconfig.GetEnvString("RSS_FUNNEL_CONFIG", "funnel.yaml")
	requestTimeout := pkgconfig.GetEnvDuration("RSS_FUNNEL_REQUEST_TIMEOUT", 30*time.Second)
	rateLimit := pkgconfig.GetEnvInt("RSS_FUNNEL_RATE_LIMIT", 120)
	rateWindow := pkgconfig.GetEnvDuration("RSS_FUNNEL_RATE_WINDOW", time.Minute)
	flag.StringVar(&bind, "bind", bind, "address to listen on")
	flag.StringVar(&configPath, "config", configPath, "path to the funnel config file")
	flag.Parse()

	if err := pkgconfig.ValidateDurationRange(requestTimeout, time.Second, 5*time.Minute); err != nil {
		logger.Error("invalid request timeout", slog.Any("error", err))
		os.Exit(1)
	}

	doc, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.String("path", configPath),
		slog.Int("endpoint_count", doc.EndpointCount()))

	handler := buildHandler(logger, doc, requestTimeout, rateLimit, rateWindow)
	runServer(logger, bind, handler)
}

func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if pkgconfig.GetEnvBool("LOG_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// buildHandler wires the shared HTTP client/cache, the feed fetcher, the
// JS script host, the resolver/pipeline-driving endpoint service, and
// the public mux (configured endpoints, /_inspector/*, /health-check,
// /metrics), wrapped in the same middleware order the teacher's
// applyMiddleware uses minus the authentication-specific layers this
// service doesn't carry.
func buildHandler(logger *slog.Logger, doc *config.Document, requestTimeout time.Duration, rateLimit int, rateWindow time.Duration) http.Handler {
	client := httpclient.New(httpclient.DefaultConfig(), circuitbreaker.FeedFetchConfig())
	cache := httpcache.New(httpcache.Config{
		MaxEntries:   doc.Cache.MaxEntries,
		MaxBytes:     doc.Cache.MaxBytes,
		TTL:          doc.Cache.TTL,
		MaxEntrySize: 4 * 1024 * 1024,
	})
	client.SetCache(cache)

	jsHost := jsruntime.New(client)
	filters.SetScriptHost(jsHost)

	fetcher := feedfetch.New(client)
	svc := endpointsvc.New(fetcher, doc, "")

	mux := http.NewServeMux()
	mux.Handle("/", &endpoint.Handler{Doc: doc, Runner: svc})
	mux.Handle("/_inspector/config", &inspector.ConfigHandler{Doc: doc})
	mux.Handle("/_inspector/filter_schema", &inspector.FilterSchemaHandler{})
	mux.Handle("/_inspector/preview", &inspector.PreviewHandler{Doc: doc, Runner: svc})
	mux.Handle("/health-check", &hhttp.HealthHandler{Config: doc, Cache: cache, Version: version()})
	mux.Handle("/metrics", hhttp.MetricsHandler())

	limiter := hhttp.NewRateLimiter(rateLimit, rateWindow)

	var h http.Handler = mux
	h = hhttp.MetricsMiddleware(h)
	h = hhttp.Timeout(requestTimeout)(h)
	h = limiter.Limit(h)
	h = hhttp.InputValidation()(h)
	h = hhttp.Logging(logger)(h)
	h = hhttp.Recover(logger)(h)
	h = requestid.Middleware(h)
	return h
}

func version() string {
	if v := os.Getenv("RSS_FUNNEL_VERSION"); v != "" {
		return v
	}
	return "dev"
}

func runServer(logger *slog.Logger, bind string, handler http.Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              bind,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", bind))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
