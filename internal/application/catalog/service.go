package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
	"github.com/rubenrizquez10/comicstore/internal/pkg/logging"
)

// Service handles catalog management: product CRUD with unique-slug
// resolution, category and tag reference data, and filtered listing.
type Service struct {
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	tags       catalog.TagRepository
}

func NewService(products catalog.ProductRepository, categories catalog.CategoryRepository, tags catalog.TagRepository) *Service {
	return &Service{
		products:   products,
		categories: categories,
		tags:       tags,
	}
}

// ProductInput is the write payload for product create/update.
type ProductInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Stock           *int            `json:"stock"`
	Publisher       string          `json:"publisher"`
	SKU             string          `json:"sku"`
	Series          *string         `json:"series"`
	IssueNumber     *string         `json:"issueNumber"`
	PublicationDate *time.Time      `json:"publicationDate"`
	Image           *string         `json:"image"`
	CategoryID      uint            `json:"categoryId"`
	TagIDs          []uint          `json:"tagIds"`
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*catalog.Product, error) {
	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}
	p := &catalog.Product{
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		Stock:           stock,
		Publisher:       in.Publisher,
		SKU:             in.SKU,
		Series:          in.Series,
		IssueNumber:     in.IssueNumber,
		PublicationDate: in.PublicationDate,
		Image:           in.Image,
		CategoryID:      in.CategoryID,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, catalog.BaseSlug(in.Name), 0)
	if err != nil {
		return nil, err
	}
	p.Slug = slug

	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	if len(in.TagIDs) > 0 {
		if err := s.products.ReplaceTags(ctx, p, in.TagIDs); err != nil {
			return nil, err
		}
	}
	logging.FromContext(ctx).Info("product_created",
		zap.Uint("product_id", p.ID), zap.String("slug", p.Slug))
	return s.products.FindByID(ctx, p.ID)
}

// UpdateProduct applies the input and recomputes the slug whenever the name
// changes, re-resolving collisions each time.
func (s *Service) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*catalog.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != 0 && in.CategoryID != p.CategoryID {
		if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = in.CategoryID
	}
	if in.Name != "" && in.Name != p.Name {
		p.Name = in.Name
		slug, err := s.uniqueSlug(ctx, catalog.BaseSlug(in.Name), p.ID)
		if err != nil {
			return nil, err
		}
		p.Slug = slug
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if !in.Price.IsZero() {
		p.Price = in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Publisher != "" {
		p.Publisher = in.Publisher
	}
	if in.SKU != "" {
		p.SKU = in.SKU
	}
	if in.Series != nil {
		p.Series = in.Series
	}
	if in.IssueNumber != nil {
		p.IssueNumber = in.IssueNumber
	}
	if in.PublicationDate != nil {
		p.PublicationDate = in.PublicationDate
	}
	if in.Image != nil {
		p.Image = in.Image
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	if in.TagIDs != nil {
		if err := s.products.ReplaceTags(ctx, p, in.TagIDs); err != nil {
			return nil, err
		}
	}
	return s.products.FindByID(ctx, p.ID)
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*catalog.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

// ProductPage is a paginated product listing.
type ProductPage struct {
	TotalItems  int64             `json:"totalItems"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
	Products    []catalog.Product `json:"products"`
}

func (s *Service) ListProducts(ctx context.Context, f catalog.Filter) (*ProductPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	products, count, err := s.products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	totalPages := int((count + int64(f.Limit) - 1) / int64(f.Limit))
	return &ProductPage{
		TotalItems:  count,
		TotalPages:  totalPages,
		CurrentPage: f.Page,
		Products:    products,
	}, nil
}

// uniqueSlug suffixes a counter until the candidate is free, skipping a row
// with excludeID so updates do not collide with themselves.
func (s *Service) uniqueSlug(ctx context.Context, base string, excludeID uint) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		exists, err := s.products.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Service) CreateCategory(ctx context.Context, name, description string) (*catalog.Category, error) {
	c := &catalog.Category{Name: name, Description: description}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, name, description string) (*catalog.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		c.Name = name
	}
	if description != "" {
		c.Description = description
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id uint) (*catalog.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return err
	}
	return s.categories.Delete(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) CreateTag(ctx context.Context, name string) (*catalog.Tag, error) {
	t := &catalog.Tag{Name: name}
	if err := s.tags.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) GetTag(ctx context.Context, id uint) (*catalog.Tag, error) {
	return s.tags.FindByID(ctx, id)
}

func (s *Service) UpdateTag(ctx context.Context, id uint, name string) (*catalog.Tag, error) {
	t, err := s.tags.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		t.Name = name
	}
	if err := s.tags.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) DeleteTag(ctx context.Context, id uint) error {
	if _, err := s.tags.FindByID(ctx, id); err != nil {
		return err
	}
	return s.tags.Delete(ctx, id)
}

func (s *Service) ListTags(ctx context.Context) ([]catalog.Tag, error) {
	return s.tags.List(ctx)
}
