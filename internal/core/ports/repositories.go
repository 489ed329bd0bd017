package ports

import (
	"context"

	"routelayer/internal/core/domain"
)

// LayerRepository persists layer records.
type LayerRepository interface {
	Save(ctx context.Context, rec *domain.LayerRecord) error
	Get(ctx context.Context, id string) (*domain.LayerRecord, error)
	List(ctx context.Context, limit, offset int) ([]*domain.LayerRecord, int, error)
	Delete(ctx context.Context, id string) error
}
