package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"routelayer/internal/core/domain"
	"routelayer/internal/core/usecases"
)

// LayerRepo implements ports.LayerRepository on top of a layers table with a
// jsonb route column. The route snapshot is stored as one document; the
// mutable state lives in memory, so the table only needs whole-record
// replacement.
type LayerRepo struct {
	db *DB
}

func NewLayerRepo(db *DB) *LayerRepo { return &LayerRepo{db: db} }

func (r *LayerRepo) Save(ctx context.Context, rec *domain.LayerRecord) error {
	route, err := json.Marshal(rec.Route)
	if err != nil {
		return fmt.Errorf("marshal route: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO layers (id, name, route, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, route = EXCLUDED.route, updated_at = EXCLUDED.updated_at
	`, rec.ID, rec.Name, route, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *LayerRepo) Get(ctx context.Context, id string) (*domain.LayerRecord, error) {
	var (
		rec   domain.LayerRecord
		route []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, route, created_at, updated_at
		FROM layers WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Name, &route, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, usecases.ErrLayerNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(route, &rec.Route); err != nil {
		return nil, fmt.Errorf("unmarshal route: %w", err)
	}
	return &rec, nil
}

func (r *LayerRepo) List(ctx context.Context, limit, offset int) ([]*domain.LayerRecord, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM layers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, route, created_at, updated_at
		FROM layers ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []*domain.LayerRecord
	for rows.Next() {
		var (
			rec   domain.LayerRecord
			route []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &route, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(route, &rec.Route); err != nil {
			return nil, 0, fmt.Errorf("unmarshal route: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, total, rows.Err()
}

func (r *LayerRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM layers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return usecases.ErrLayerNotFound
	}
	return nil
}
