package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/softvape/shop-bot/pkg/logger"
)

const checkTimeout = 3 * time.Second

// CheckFunc — проверка готовности одной зависимости.
type CheckFunc func(ctx context.Context) error

// HealthHandler отвечает на пробы живости и готовности.
// Живость не трогает зависимости; готовность опрашивает каждую из них.
type HealthHandler struct {
	checks map[string]CheckFunc
	logger logger.Logger
}

func NewHealthHandler(logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks: make(map[string]CheckFunc),
		logger: logger,
	}
}

// Register добавляет именованную проверку зависимости.
func (h *HealthHandler) Register(name string, check CheckFunc) {
	h.checks[name] = check
}

func (h *HealthHandler) liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warnf("readiness check %q failed: %v", name, err)
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body := map[string]any{
		"status": "ok",
		"checks": results,
	}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
