package product

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	GetProduct(ctx context.Context, id uint) (*Product, error)
	ListProducts(ctx context.Context, limit, offset int32) ([]*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetProduct(ctx context.Context, id uint) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, brand, price, image_url, active, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id)

	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) ListProducts(ctx context.Context, limit, offset int32) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, brand, price, image_url, active, created_at, updated_at
		FROM products
		WHERE active = true
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}

	return products, rows.Err()
}
