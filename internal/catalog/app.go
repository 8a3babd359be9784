package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MiniCatalog/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// AdminSecret, when set, requires an admin JWT on mutating routes.
	AdminSecret string

	WriteLimit  int
	WriteWindow time.Duration

	// TrustProxy keys the write limiter on X-Forwarded-For.
	TrustProxy bool
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Mount("/", s.Routes(writeMiddleware(deps)...))
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func writeMiddleware(deps HTTPDeps) []func(http.Handler) http.Handler {
	var mw []func(http.Handler) http.Handler

	if deps.WriteLimit > 0 {
		mw = append(mw, kit.NewIPRateLimiter(deps.WriteLimit, deps.WriteWindow, kit.WithTrustedProxy(deps.TrustProxy)).Middleware)
	}
	if deps.AdminSecret != "" {
		mw = append(mw, RequireRole(NewTokenMaker(deps.AdminSecret), RoleAdmin))
	} else if deps.Log != nil {
		deps.Log.Warn("no admin secret configured; mutating routes are open")
	}
	return mw
}
