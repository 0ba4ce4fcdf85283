package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/softvape/shop-bot/pkg/logger"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(health *HealthHandler) {
	r.router.Get("/healthz", health.liveness)
	r.router.Get("/readyz", health.readiness)
}

func (r *Router) Handler() http.Handler {
	return r.router
}
