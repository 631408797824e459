package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mcdev12/pokerclock/go/internal/api"
	"github.com/mcdev12/pokerclock/go/internal/config"
	"github.com/mcdev12/pokerclock/go/internal/gateway"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupHandler(cfg, services),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func setupHandler(cfg config.Config, services *Services) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// REST API and health check
	api.NewHandler(services.Tournaments).RegisterRoutes(r)

	// Live clock feed
	gateway.NewWebSocketHandler(services.Connections, services.Clocks).RegisterRoutes(r)

	r.Handle("/metrics", promhttp.HandlerFor(services.Metrics, promhttp.HandlerOpts{}))

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	return h2c.NewHandler(c.Handler(r), &http2.Server{})
}
