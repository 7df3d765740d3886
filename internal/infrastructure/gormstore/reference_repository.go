package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
)

// catalogWriteError maps unique-constraint violations on catalog tables to
// the shared duplicate sentinel.
func catalogWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return catalog.ErrDuplicate
	}
	return err
}

type categoryRepository struct {
	db *gorm.DB
}

func (r *categoryRepository) Create(ctx context.Context, c *catalog.Category) error {
	return catalogWriteError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *categoryRepository) Update(ctx context.Context, c *catalog.Category) error {
	return catalogWriteError(r.db.WithContext(ctx).Save(c).Error)
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&catalog.Category{}, id).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*catalog.Category, error) {
	var c catalog.Category
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

type tagRepository struct {
	db *gorm.DB
}

func (r *tagRepository) Create(ctx context.Context, t *catalog.Tag) error {
	return catalogWriteError(r.db.WithContext(ctx).Create(t).Error)
}

func (r *tagRepository) Update(ctx context.Context, t *catalog.Tag) error {
	return catalogWriteError(r.db.WithContext(ctx).Save(t).Error)
}

func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	// Join rows carry no attributes of their own; clear them with the tag.
	if err := r.db.WithContext(ctx).Exec("DELETE FROM product_tags WHERE tag_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&catalog.Tag{}, id).Error
}

func (r *tagRepository) FindByID(ctx context.Context, id uint) (*catalog.Tag, error) {
	var t catalog.Tag
	err := r.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepository) List(ctx context.Context) ([]catalog.Tag, error) {
	var tags []catalog.Tag
	if err := r.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
