package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/icebreaker/go/internal/config"
	"github.com/mcdev12/icebreaker/go/internal/gateway"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	api := gateway.NewHandler(gateway.Dependencies{
		Session:   services.Session,
		Names:     services.Names,
		Feed:      services.Feed,
		Loader:    services.Loader,
		Pool:      services.Pool,
		Surveys:   services.Surveys,
		Publisher: services.Publisher,
		Source:    services.InstanceID,
	})

	services.Hub.SetSnapshot(gateway.SessionSnapshot(services.Session, services.InstanceID))

	routerConfig := gateway.DefaultRouterConfig()
	routerConfig.AllowedOrigins = cfg.AllowedOrigins
	routerConfig.RequestTimeout = cfg.RequestTimeout

	handler := gateway.NewRouter(
		routerConfig,
		promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{}),
		api,
		gateway.NewWebSocketHandler(services.Hub),
	)

	// WriteTimeout stays unset: websocket connections are long lived.
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
