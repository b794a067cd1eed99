// Package catalog lists products and performs the owner's inventory edits.
// Role gating happens at the screen, not here.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

var (
	ErrInvalidName     = errors.New("catalog: product name is required")
	ErrInvalidPrice    = errors.New("catalog: price must be greater than zero")
	ErrInvalidQuantity = errors.New("catalog: quantity must be at least 1")
	ErrInvalidStock    = errors.New("catalog: stock cannot be negative")
	ErrInvalidProduct  = errors.New("catalog: invalid product id")
	ErrProductNotFound = errors.New("catalog: product not found")
)

type Service struct {
	api ports.CatalogAPI
}

func NewService(api ports.CatalogAPI) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]entity.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	return products, nil
}

// Find returns the product with id from a fresh listing.
func (s *Service) Find(ctx context.Context, id int64) (entity.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return entity.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return entity.Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
}

func (s *Service) AddProduct(ctx context.Context, name string, price decimal.Decimal, stock int) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ErrInvalidName
	case !price.IsPositive():
		return ErrInvalidPrice
	case stock < 0:
		return ErrInvalidStock
	}

	if err := s.api.AddProduct(ctx, name, price, stock); err != nil {
		return fmt.Errorf("catalog: add %q: %w", name, err)
	}
	slog.InfoContext(ctx, "product added", "name", name, "price", price.String(), "stock", stock)
	return nil
}

func (s *Service) UpdatePrice(ctx context.Context, productID int64, price decimal.Decimal) error {
	if productID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProduct, productID)
	}
	if !price.IsPositive() {
		return ErrInvalidPrice
	}

	if err := s.api.UpdatePrice(ctx, productID, price); err != nil {
		return fmt.Errorf("catalog: update price of %d: %w", productID, err)
	}
	slog.InfoContext(ctx, "price updated", "product_id", productID, "price", price.String())
	return nil
}

func (s *Service) RefillStock(ctx context.Context, productID int64, qty int) error {
	if productID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProduct, productID)
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}

	if err := s.api.RefillStock(ctx, productID, qty); err != nil {
		return fmt.Errorf("catalog: refill %d: %w", productID, err)
	}
	slog.InfoContext(ctx, "stock refilled", "product_id", productID, "qty", qty)
	return nil
}

// LowStock returns the products at or below threshold, for the inventory
// health panel.
func LowStock(products []entity.Product, threshold int) []entity.Product {
	var low []entity.Product
	for _, p := range products {
		if p.StockQuantity <= threshold {
			low = append(low, p)
		}
	}
	return low
}
