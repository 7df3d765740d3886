// Package gormstore implements the repository ports on top of GORM. A
// Store bound to a transaction hands out repositories that share that
// transaction, which is how the checkout workflow gets its all-or-nothing
// semantics.
package gormstore

import (
	"context"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apporder "github.com/rubenrizquez10/comicstore/internal/application/order"
	"github.com/rubenrizquez10/comicstore/internal/domain/catalog"
	"github.com/rubenrizquez10/comicstore/internal/domain/order"
	"github.com/rubenrizquez10/comicstore/internal/domain/user"
)

type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and returns a Store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// New wraps an existing gorm handle; tests use this with in-memory SQLite.
// Error translation is forced on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey on every dialect.
func New(db *gorm.DB) *Store {
	db.Config.TranslateError = true
	return &Store{db: db}
}

// AutoMigrate creates or updates the schema for every entity.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&user.User{},
		&catalog.Category{},
		&catalog.Tag{},
		&catalog.Product{},
		&order.Order{},
		&order.Item{},
	)
}

// InTx runs fn inside one database transaction. The Store passed to fn is
// bound to the transaction; any error rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(tx apporder.Stores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Products() catalog.ProductRepository {
	return &productRepository{db: s.db}
}

func (s *Store) Orders() order.Repository {
	return &orderRepository{db: s.db}
}

func (s *Store) Users() user.Repository {
	return &userRepository{db: s.db}
}

func (s *Store) Categories() catalog.CategoryRepository {
	return &categoryRepository{db: s.db}
}

func (s *Store) Tags() catalog.TagRepository {
	return &tagRepository{db: s.db}
}
