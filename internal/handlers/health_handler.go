package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/unilak/community/internal/dto"
)

// Pinger reports database reachability.
type Pinger func() error

// SubscriptionCounter reports live realtime subscriptions.
type SubscriptionCounter interface {
	ActiveSubscriptions() int
}

type HealthHandler struct {
	ping Pinger
	hub  SubscriptionCounter
}

func NewHealthHandler(ping Pinger, hub SubscriptionCounter) *HealthHandler {
	return &HealthHandler{ping: ping, hub: hub}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Realtime:  h.hub.ActiveSubscriptions(),
	})
}
