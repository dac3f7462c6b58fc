// backend-go/internal/repository/product_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smartstock/backend-go/internal/domain"
)

// ProductRepository reads and writes the products master table.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, input domain.NewProductInput) (*domain.Product, error)
}

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
        SELECT product_id, sku, product_name, category_id, supplier_id,
               unit_price, cost_price, reorder_level, reorder_quantity,
               unit_of_measure, is_active, created_at, updated_at
        FROM products
        ORDER BY product_id
    `

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	return products, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, input domain.NewProductInput) (*domain.Product, error) {
	now := time.Now().UTC()

	// System defaults for new products.
	product := domain.Product{
		SKU:             input.SKU,
		ProductName:     input.ProductName,
		CategoryID:      input.CategoryID,
		SupplierID:      input.SupplierID,
		UnitPrice:       input.UnitPrice,
		CostPrice:       input.CostPrice,
		ReorderLevel:    10,
		ReorderQuantity: 50,
		UnitOfMeasure:   "piece",
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	query := `
        INSERT INTO products (
            sku, product_name, category_id, supplier_id,
            unit_price, cost_price, reorder_level, reorder_quantity,
            unit_of_measure, is_active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING product_id
    `

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		product.SKU, product.ProductName, product.CategoryID, product.SupplierID,
		product.UnitPrice, product.CostPrice, product.ReorderLevel, product.ReorderQuantity,
		product.UnitOfMeasure, product.IsActive, product.CreatedAt, product.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}

	product.ProductID = domain.ProductID(id)
	return &product, nil
}
