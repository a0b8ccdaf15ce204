package repository

import (
	"context"
	"database/sql"
	"order-intake-service/internal/entity"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db}
}

func (r *CatalogRepository) GetProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product

	query := `SELECT name, category, description, image, price_base, price_x3, price_x6, price_x12 FROM products ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p entity.Product
		err := rows.Scan(&p.Name, &p.Category, &p.Description, &p.Image, &p.Prices.Base, &p.Prices.Tier3, &p.Prices.Tier6, &p.Prices.Tier12)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *entity.Product) error {
	query := `INSERT INTO products (name, category, description, image, price_base, price_x3, price_x6, price_x12) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, p.Name, p.Category, p.Description, p.Image, p.Prices.Base, p.Prices.Tier3, p.Prices.Tier6, p.Prices.Tier12)
	return err
}
