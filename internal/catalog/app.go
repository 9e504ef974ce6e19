package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"CapStore/pkg/kit"
)

const (
	defaultService          = "catalog"
	defaultQueryLimitPerMin = 120
	defaultRequestTimeout   = 15 * time.Second
	limitWindow             = time.Minute
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// QueryLimitPerMin caps search and sort updates per client IP.
	QueryLimitPerMin int
	// RequestTimeout bounds how long a request waits on a collection fetch.
	RequestTimeout time.Duration
}

func (d HTTPDeps) service() string {
	if d.Service == "" {
		return defaultService
	}
	return d.Service
}

// NewHandler wires the collection routes behind request ids, panic recovery,
// request logging, a request deadline and (with a registry) HTTP metrics.
func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if s.Log == nil {
		s.Log = deps.Log
	}

	limit := deps.QueryLimitPerMin
	if limit <= 0 {
		limit = defaultQueryLimitPerMin
	}
	s.queryLimiter = kit.NewIPRateLimiter(limit, limitWindow)

	r := chi.NewRouter()
	useMiddleware(r, deps)
	mountMetrics(r, deps)

	r.Mount("/", s.Routes())
	return r
}

func useMiddleware(r *chi.Mux, deps HTTPDeps) {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
	r.Use(chimw.Timeout(timeout))
}

func mountMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	r.Use(kit.NewMetrics(deps.Registry).Middleware(deps.service(), kit.ChiRoutePatternOrPath))
	if !deps.MetricsEnabled {
		return
	}

	h := promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry})
	r.With(kit.MetricsAuth(deps.MetricsToken)).Handle("/metrics", h)
}
