package http

import (
	"github.com/nats-io/nats.go"

	"routelayer/internal/adapters/postgres"
	"routelayer/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Layers *usecases.LayerService
	NATS   *nats.Conn
	DB     *postgres.DB
}
