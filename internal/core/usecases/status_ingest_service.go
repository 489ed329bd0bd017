package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"routelayer/internal/core/ports"
)

// StatusIngestService consumes route status reports from external directions
// resolvers and applies them to the hosted layers.
type StatusIngestService struct {
	layers     *LayerService
	subscriber ports.StatusSubscriber
	logger     *slog.Logger
}

// NewStatusIngestService creates a new StatusIngestService.
func NewStatusIngestService(layers *LayerService, subscriber ports.StatusSubscriber, logger *slog.Logger) *StatusIngestService {
	return &StatusIngestService{layers: layers, subscriber: subscriber, logger: logger}
}

// Run subscribes to inbound status reports and blocks until ctx is done.
// Reports for unknown layers are logged and dropped, not retried.
func (s *StatusIngestService) Run(ctx context.Context) error {
	err := s.subscriber.SubscribeStatusReports(ctx, func(ctx context.Context, layerID, status string) error {
		if err := s.layers.SetStatus(ctx, layerID, status); err != nil {
			if errors.Is(err, ErrLayerNotFound) {
				s.logger.Warn("status report for unknown layer", "layer_id", layerID, "status", status)
				return nil
			}
			return fmt.Errorf("applying status report: %w", err)
		}
		s.logger.Debug("route status applied", "layer_id", layerID, "status", status)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribing to status reports: %w", err)
	}

	<-ctx.Done()
	return ctx.Err()
}
