package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"petkart/internal/model"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetByRef retrieves a single catalog item by its product reference.
// Returns nil without error when the product is unknown.
func (r *productRepository) GetByRef(ctx context.Context, ref string) (*model.CatalogItem, error) {
	query := `
		SELECT ref, name, price, image_ref
		FROM products
		WHERE ref = $1
	`

	var item model.CatalogItem
	err := r.pool.QueryRow(ctx, query, ref).Scan(&item.ProductID, &item.Name, &item.Price, &item.ImageRef)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_ref", ref).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_ref", ref).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &item, nil
}

// GetByRefs retrieves multiple catalog items by reference.
func (r *productRepository) GetByRefs(ctx context.Context, refs []string) ([]model.CatalogItem, error) {
	if len(refs) == 0 {
		return []model.CatalogItem{}, nil
	}

	query := `
		SELECT ref, name, price, image_ref
		FROM products
		WHERE ref = ANY($1)
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, refs)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(refs)).Msg("failed to query products by refs")
		return nil, fmt.Errorf("failed to query products by refs: %w", err)
	}
	defer rows.Close()

	var items []model.CatalogItem
	for rows.Next() {
		var item model.CatalogItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.ImageRef); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return items, nil
}
