package ports

import (
	"context"

	"routelayer/internal/core/domain"
)

// LayerEventPublisher fans layer state changes out to interested consumers
// (map frontends, audit sinks).
type LayerEventPublisher interface {
	PublishFieldChange(ctx context.Context, layerID string, change domain.FieldChange) error
	PublishDeprecation(ctx context.Context, layerID string, dep domain.Deprecation) error
}

// StatusReportHandler processes a route status reported for a layer by an
// external directions resolver.
type StatusReportHandler func(ctx context.Context, layerID, status string) error

// StatusSubscriber delivers inbound route status reports.
type StatusSubscriber interface {
	SubscribeStatusReports(ctx context.Context, handler StatusReportHandler) error
}
