package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		AllowedOrigins: []string{"*"},
		RequestTimeout: 30 * time.Second,
	}
}

// NewRouter builds the HTTP surface. API routes get a request timeout;
// websocket routes do not, they live as long as the client stays.
func NewRouter(config RouterConfig, metrics http.Handler, api Registrar, streams Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Group(func(r chi.Router) {
		if config.RequestTimeout > 0 {
			r.Use(middleware.Timeout(config.RequestTimeout))
		}
		api.Register(r)
	})
	if streams != nil {
		streams.Register(r)
	}

	return NewCORS(config.AllowedOrigins).Handler(r)
}

func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: allowedOrigins,
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	})
}
