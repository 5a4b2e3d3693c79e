package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/velora-hq/velora-hcm/pkg/configuration"
	"github.com/velora-hq/velora-hcm/pkg/httpapi"
	"github.com/velora-hq/velora-hcm/pkg/metrics"
	"github.com/velora-hq/velora-hcm/pkg/middleware"
	"github.com/velora-hq/velora-hcm/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Pool          *pgxpool.Pool
	Controllers   []server.Controller
}

// Default assembles the HTTP server: request logging, database pool
// injection and CORS apply to every route; actor resolution is attached
// per controller.
func Default(options *DefaultOptions) *server.HTTPServer {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "X-Actor-Id", "X-Request-Id"},
	})

	middlewares := []mux.MiddlewareFunc{
		middleware.RequestLogger(options.Logger),
		middleware.ProvidePool(options.Pool),
		corsHandler.Handler,
	}

	controllers := []server.Controller{
		newHealthController(options.Pool),
	}
	if options.Configuration.Prometheus.Enabled {
		controllers = append(controllers, metrics.NewPrometheusController(options.Configuration.Prometheus.Path))
	}
	controllers = append(controllers, options.Controllers...)

	return server.NewHTTPServer(controllers, middlewares...)
}

type healthController struct {
	pool *pgxpool.Pool
}

func newHealthController(pool *pgxpool.Pool) server.Controller {
	return &healthController{pool: pool}
}

func (c *healthController) Key() string {
	return "/health"
}

func (c *healthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Health).Methods(http.MethodGet)
}

func (c *healthController) Health(w http.ResponseWriter, r *http.Request) {
	if err := c.pool.Ping(r.Context()); err != nil {
		_ = httpapi.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
