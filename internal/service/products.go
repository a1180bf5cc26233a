package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/clients"
	"github.com/comercio-labs/admin-console-service/internal/models"
)

// ProductService proxies the product management pages to the backend
// catalog.
type ProductService struct {
	catalog clients.CatalogGateway
	logger  *zap.Logger
}

func NewProductService(catalog clients.CatalogGateway, logger *zap.Logger) *ProductService {
	return &ProductService{catalog: catalog, logger: logger}
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.catalog.ListProducts(ctx)
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.catalog.GetProduct(ctx, id)
}

func (s *ProductService) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	created, err := s.catalog.CreateProduct(ctx, p)
	if err != nil {
		s.logger.Warn("product creation failed", zap.String("product_id", p.ID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, p models.Product) (*models.Product, error) {
	updated, err := s.catalog.UpdateProduct(ctx, id, p)
	if err != nil {
		s.logger.Warn("product update failed", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		s.logger.Warn("product deletion failed", zap.String("product_id", id), zap.Error(err))
		return err
	}
	return nil
}
