package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"inventory-backend/internal/apps/product/models"
	"inventory-backend/internal/apps/product/repository"

	"gorm.io/gorm"
)

var (
	// ErrProductNotFound is returned when no product has the requested id
	ErrProductNotFound = errors.New("product not found")
	// ErrProductExists is returned when creating a product with a taken id
	ErrProductExists = errors.New("product with this id already exists")
)

// ProductService defines the interface for product business logic
type ProductService interface {
	CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.ProductResponse, error)
	GetProductByID(ctx context.Context, id int) (*models.ProductResponse, error)
	ListProducts(ctx context.Context, query string) ([]models.ProductResponse, error)
	UpdateProduct(ctx context.Context, id int, req models.UpdateProductRequest) (*models.ProductResponse, error)
	DeleteProduct(ctx context.Context, id int) error
	ListLowStock(ctx context.Context) ([]models.ProductResponse, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	ImportCSV(ctx context.Context, r io.Reader) (*models.ImportResult, error)
}

// productService implements ProductService
type productService struct {
	repo repository.ProductRepository
	log  *slog.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(repo repository.ProductRepository, log *slog.Logger) ProductService {
	return &productService{
		repo: repo,
		log:  log.With(slog.String("service", "product")),
	}
}

func toResponses(products []models.Product) []models.ProductResponse {
	responses := make([]models.ProductResponse, len(products))
	for i := range products {
		responses[i] = products[i].ToResponse()
	}
	return responses
}

// CreateProduct validates and stores a new product
func (s *productService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.ProductResponse, error) {
	product := &models.Product{
		ID:        req.ID,
		Name:      req.Name,
		Category:  req.Category,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Threshold: req.Threshold,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProductExists
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log.Info("product_created", slog.Int("product_id", product.ID))
	resp := product.ToResponse()
	return &resp, nil
}

// GetProductByID retrieves a product by its ID
func (s *productService) GetProductByID(ctx context.Context, id int) (*models.ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	resp := product.ToResponse()
	return &resp, nil
}

// ListProducts retrieves every product, or only those whose name or
// category contains query when it is not blank
func (s *productService) ListProducts(ctx context.Context, query string) ([]models.ProductResponse, error) {
	var (
		products []models.Product
		err      error
	)
	if query = strings.TrimSpace(query); query == "" {
		products, err = s.repo.FindAll(ctx)
	} else {
		products, err = s.repo.Search(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return toResponses(products), nil
}

// UpdateProduct applies the provided fields to an existing product
func (s *productService) UpdateProduct(ctx context.Context, id int, req models.UpdateProductRequest) (*models.ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Threshold != nil {
		product.Threshold = *req.Threshold
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.log.Info("product_updated", slog.Int("product_id", product.ID))
	resp := product.ToResponse()
	return &resp, nil
}

// DeleteProduct removes a product by its ID
func (s *productService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.log.Info("product_deleted", slog.Int("product_id", id))
	return nil
}

// ListLowStock retrieves products at or below their alert threshold
func (s *productService) ListLowStock(ctx context.Context) ([]models.ProductResponse, error) {
	products, err := s.repo.FindLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	return toResponses(products), nil
}

// ExportCSV writes every product to w as CSV
func (s *productService) ExportCSV(ctx context.Context, w io.Writer) error {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	return WriteCSV(w, products)
}

// ImportCSV parses r and upserts every valid row
func (s *productService) ImportCSV(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	products, result, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpsertMany(ctx, products); err != nil {
		return nil, fmt.Errorf("import products: %w", err)
	}
	result.Imported = len(products)

	s.log.Info("products_imported",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("errors", len(result.Errors)),
	)
	return &result, nil
}
