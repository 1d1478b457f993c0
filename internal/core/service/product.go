package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mercatto/catalog/internal/core/domain"
	"github.com/mercatto/catalog/internal/core/dto"
	"github.com/mercatto/catalog/internal/core/logger"
	"github.com/mercatto/catalog/internal/core/port"
	"github.com/mercatto/catalog/internal/core/serviceerrors"
	"github.com/mercatto/catalog/internal/core/utils"
)

const productCacheTTL = 15 * time.Minute

type ProductService struct {
	productRepository port.ProductPort
	productCache      port.CachePort[domain.Product]
	idempotency       *IdempotencyService[domain.Product]
}

func NewProductService(
	productRepository port.ProductPort,
	productCache port.CachePort[domain.Product],
	idempotency *IdempotencyService[domain.Product],
) *ProductService {
	return &ProductService{
		productRepository: productRepository,
		productCache:      productCache,
		idempotency:       idempotency,
	}
}

func (s *ProductService) getCacheKey(productID domain.ID) string {
	return fmt.Sprintf("product:%s", productID)
}

func (s *ProductService) createProduct(ctx context.Context, request *dto.CreateProductRequest) (*domain.Product, error) {
	product := domain.NewProduct(request.Name, request.Price, request.Unit.ToDomain(), *request.Count, request.Description)
	if err := product.Validate(); err != nil {
		return nil, serviceerrors.NewInvalidRequestError(err.Error())
	}

	if err := s.productRepository.Create(ctx, product); err != nil {
		logger.Error(ctx, "product: create failed", err, map[string]any{
			"name":  request.Name,
			"price": request.Price,
			"count": *request.Count,
		})
		return nil, err
	}

	if err := s.productCache.Set(ctx, s.getCacheKey(product.ID), product, productCacheTTL); err != nil {
		logger.Error(ctx, "cache: set product failed", err, map[string]any{
			"product_id": product.ID,
		})
	}

	logger.Info(ctx, "Product created", map[string]any{"product_id": product.ID})
	return product, nil
}

// CreateProduct creates a product, deduplicating by Idempotency-Key when the
// caller supplies one.
func (s *ProductService) CreateProduct(ctx context.Context, idempotencyKey string, request *dto.CreateProductRequest) (*domain.Product, error) {
	if idempotencyKey == "" {
		return s.createProduct(ctx, request)
	}

	payloadHash := utils.HashJSON(request)

	existing, err := s.idempotency.Claim(ctx, idempotencyKey, payloadHash)
	if err != nil {
		logger.Error(ctx, "idempotency: claim failed", err, map[string]any{
			"idempotency_key": idempotencyKey,
		})
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	product, err := s.createProduct(ctx, request)
	if err != nil {
		s.idempotency.Release(ctx, idempotencyKey)
		return nil, err
	}

	s.idempotency.Complete(ctx, idempotencyKey, payloadHash, product)
	return product, nil
}

func (s *ProductService) GetByID(ctx context.Context, productID domain.ID) (*domain.Product, error) {
	cached, err := s.productCache.Get(ctx, s.getCacheKey(productID))
	if err != nil {
		logger.Error(ctx, "cache: get product failed", err, map[string]any{
			"product_id": productID,
		})
	}
	if cached != nil {
		return cached, nil
	}

	product, err := s.productRepository.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := s.productCache.Set(ctx, s.getCacheKey(productID), product, productCacheTTL); err != nil {
		logger.Error(ctx, "cache: set product failed", err, map[string]any{
			"product_id": productID,
		})
	}

	return product, nil
}

func (s *ProductService) List(ctx context.Context, params domain.ListParams) ([]*domain.Product, int64, error) {
	return s.productRepository.List(ctx, params)
}

func (s *ProductService) UpdateProduct(ctx context.Context, productID domain.ID, request *dto.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.productRepository.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.Apply(request.Name, request.Price, request.Unit.ToDomain(), *request.Count, request.Description)
	if err := product.Validate(); err != nil {
		return nil, serviceerrors.NewInvalidRequestError(err.Error())
	}

	if err := s.productRepository.Update(ctx, product); err != nil {
		logger.Error(ctx, "product: update failed", err, map[string]any{
			"product_id": productID,
		})
		return nil, err
	}

	if err := s.productCache.Set(ctx, s.getCacheKey(productID), product, productCacheTTL); err != nil {
		logger.Error(ctx, "cache: update product failed", err, map[string]any{
			"product_id": productID,
		})
	}

	logger.Info(ctx, "Product updated", map[string]any{"product_id": productID})
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, productID domain.ID) error {
	if err := s.productRepository.Delete(ctx, productID); err != nil {
		return err
	}

	if err := s.productCache.Del(ctx, s.getCacheKey(productID)); err != nil {
		logger.Error(ctx, "cache: delete product failed", err, map[string]any{
			"product_id": productID,
		})
	}

	logger.Info(ctx, "Product deleted", map[string]any{"product_id": productID})
	return nil
}
