package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-apotek/internal/catalog"
	"github.com/noah-isme/backend-apotek/internal/config"
	"github.com/noah-isme/backend-apotek/internal/events"
	"github.com/noah-isme/backend-apotek/internal/health"
	"github.com/noah-isme/backend-apotek/internal/obs"
	"github.com/noah-isme/backend-apotek/internal/sale"
	"github.com/noah-isme/backend-apotek/internal/stock"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	}

	bus := &events.Bus{
		Notifiers: []events.Notifier{
			events.LogNotifier{Logger: logger},
		},
	}
	if cfg.MetricsEnabled {
		bus.Notifiers = append(bus.Notifiers, obs.MetricsNotifier{})
	}

	medications := catalog.NewStore(nil)
	ledger := stock.NewLedger(stock.LedgerConfig{
		Bus:             bus,
		ReorderLevel:    cfg.DefaultReorderLevel,
		ReorderQuantity: cfg.DefaultReorderQuantity,
	})
	sales := sale.NewStore()

	if cfg.MetricsEnabled {
		obs.RegisterLowStockGauge(cfg.MetricsNamespace, nil, func() int {
			return len(ledger.LowStock())
		})
	}

	saleSvc := &sale.Service{
		Store:     sales,
		Prices:    medications,
		Bus:       bus,
		Logger:    logger,
		Currency:  cfg.Currency,
		TaxRate:   cfg.TaxRate,
		RefPrefix: cfg.SaleRefPrefix,
	}

	medHandler := catalog.NewHandler(catalog.HandlerConfig{Store: medications, Currency: cfg.Currency})
	stockHandler := stock.NewHandler(stock.HandlerConfig{Ledger: ledger})
	saleHandler := sale.NewHandler(sale.HandlerConfig{Service: saleSvc})
	healthHandler := health.Handler{Stores: map[string]health.Sizer{
		"medications": medications,
		"stock":       ledger,
		"sales":       sales,
	}}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	if cfg.MetricsEnabled {
		httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/medications", func(r chi.Router) {
			r.Get("/", medHandler.List)
			r.Post("/", medHandler.Create)
			r.Get("/search", medHandler.Search)
			r.Get("/{id}", medHandler.Detail)
		})
		r.Route("/stock", func(r chi.Router) {
			r.Get("/", stockHandler.List)
			r.Post("/", stockHandler.Track)
			r.Get("/low", stockHandler.Low)
			r.Get("/{itemId}", stockHandler.Detail)
			r.Post("/{itemId}/add", stockHandler.Add)
			r.Post("/{itemId}/remove", stockHandler.Remove)
			r.Put("/{itemId}/quantity", stockHandler.SetQuantity)
			r.Put("/{itemId}/reorder", stockHandler.UpdateReorder)
		})
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", saleHandler.List)
			r.Post("/", saleHandler.Create)
			r.Get("/reference/{ref}", saleHandler.DetailByReference)
			r.Get("/{id}", saleHandler.Detail)
			r.Post("/{id}/items", saleHandler.AddItem)
			r.Delete("/{id}/items/{itemId}", saleHandler.RemoveItem)
			r.Post("/{id}/discount", saleHandler.Discount)
			r.Post("/{id}/complete", saleHandler.Complete)
			r.Post("/{id}/refund", saleHandler.Refund)
			r.Post("/{id}/partial-refund", saleHandler.PartialRefund)
			r.Post("/{id}/cancel", saleHandler.Cancel)
		})
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}
