package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
)

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) Create(ctx context.Context, p *catalog.Product) error {
	return catalogWriteError(r.db.WithContext(ctx).Omit("Tags", "Category").Create(p).Error)
}

func (r *productRepository) Update(ctx context.Context, p *catalog.Product) error {
	return catalogWriteError(r.db.WithContext(ctx).Omit("Tags", "Category").Save(p).Error)
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select(clause.Associations).Delete(&catalog.Product{ID: id}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*catalog.Product, error) {
	var p catalog.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uint) (*catalog.Product, error) {
	q := r.db.WithContext(ctx)
	// SQLite has no FOR UPDATE and serializes writers anyway.
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p catalog.Product
	err := q.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) SetStock(ctx context.Context, id uint, stock int) error {
	if stock < 0 {
		return catalog.ErrInvalidStock
	}
	return r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ?", id).
		Update("stock", stock).Error
}

func (r *productRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *productRepository) ReplaceTags(ctx context.Context, p *catalog.Product, tagIDs []uint) error {
	var tags []catalog.Tag
	if len(tagIDs) > 0 {
		if err := r.db.WithContext(ctx).Find(&tags, tagIDs).Error; err != nil {
			return err
		}
		if len(tags) != len(tagIDs) {
			return catalog.ErrTagNotFound
		}
	}
	return r.db.WithContext(ctx).Model(p).Association("Tags").Replace(tags)
}

func (r *productRepository) List(ctx context.Context, f catalog.Filter) ([]catalog.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&catalog.Product{})

	if f.CategoryID != 0 {
		q = q.Where("products.category_id = ?", f.CategoryID)
	}
	if len(f.TagIDs) > 0 {
		tagged := r.db.Table("product_tags").
			Select("product_id").
			Where("tag_id IN ?", f.TagIDs)
		q = q.Where("products.id IN (?)", tagged)
	}
	if f.PriceMin != nil {
		q = q.Where("products.price >= ?", f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("products.price <= ?", f.PriceMax)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("products.name LIKE ? OR products.description LIKE ?", like, like)
	}
	if f.Publisher != "" {
		q = q.Where("products.publisher = ?", f.Publisher)
	}
	if f.Series != "" {
		q = q.Where("products.series = ?", f.Series)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var products []catalog.Product
	err := q.Preload("Category").
		Preload("Tags").
		Order("products.id").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, count, nil
}
