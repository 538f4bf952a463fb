package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// Pinger проверяет доступность базы данных.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler сообщает о состоянии сервиса.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler создает новый экземпляр HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check возвращает {"health":"ok"} или 503, если база данных недоступна.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		log.Printf("[HealthHandler] База данных недоступна: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Database connection is closed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"health": "ok"})
}
