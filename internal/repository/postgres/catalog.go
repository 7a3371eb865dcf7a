package postgres

import (
	"context"
	"database/sql"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"
)

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	query := `INSERT INTO catalog_items (external_product_ref, name, price, active, created_on)
	          VALUES ($1, $2, $3, $4, NOW()) RETURNING id`
	return r.db.QueryRowContext(ctx, query, item.ExternalProductRef, item.Name, item.Price, item.Active).Scan(&item.ID)
}

func (r *catalogRepository) GetByID(ctx context.Context, id int32) (*domain.CatalogItem, error) {
	item := &domain.CatalogItem{}
	query := `SELECT id, external_product_ref, name, price, active, created_on FROM catalog_items WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.ExternalProductRef, &item.Name, &item.Price, &item.Active, &item.CreatedOn)
	if err == sql.ErrNoRows {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *catalogRepository) ListActive(ctx context.Context) ([]domain.CatalogItem, error) {
	query := `SELECT id, external_product_ref, name, price, active, created_on
	          FROM catalog_items WHERE active = TRUE ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(&item.ID, &item.ExternalProductRef, &item.Name, &item.Price, &item.Active, &item.CreatedOn); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
