// Package gorm backs the linkauth user store with any GORM-supported
// relational database. Users and their provider identities live in two
// tables; the database's unique indexes arbitrate create/create races.
package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panyam/linkauth"
)

// AutoMigrate runs database migrations for the linkauth tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{}, &ProviderIdentityModel{})
}

// UserStore implements linkauth.UserStore using GORM.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a store over the given DB handle.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByLocalEmail(ctx context.Context, email string) (*linkauth.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "local_email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return s.load(ctx, &model)
}

func (s *UserStore) FindByProviderID(ctx context.Context, provider, providerID string) (*linkauth.User, error) {
	var identity ProviderIdentityModel
	err := s.db.WithContext(ctx).
		First(&identity, "provider = ? AND provider_id = ?", provider, providerID).Error
	if err != nil {
		return nil, translate(err)
	}
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", identity.UserID).Error; err != nil {
		return nil, translate(err)
	}
	return s.load(ctx, &model)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*linkauth.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return s.load(ctx, &model)
}

func (s *UserStore) Create(ctx context.Context, user *linkauth.User) (*linkauth.User, error) {
	model, identities := toModels(user)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(identities) > 0 {
			return tx.Create(&identities).Error
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return toUser(model, identities), nil
}

func (s *UserStore) Save(ctx context.Context, user *linkauth.User) (*linkauth.User, error) {
	model, identities := toModels(user)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing UserModel
		if err := tx.First(&existing, "id = ?", user.ID).Error; err != nil {
			return err
		}
		model.CreatedAt = existing.CreatedAt
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		// Full-record upsert: identities are replaced wholesale.
		if err := tx.Delete(&ProviderIdentityModel{}, "user_id = ?", user.ID).Error; err != nil {
			return err
		}
		if len(identities) > 0 {
			return tx.Create(&identities).Error
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return toUser(model, identities), nil
}

func (s *UserStore) load(ctx context.Context, model *UserModel) (*linkauth.User, error) {
	var identities []ProviderIdentityModel
	if err := s.db.WithContext(ctx).Find(&identities, "user_id = ?", model.ID).Error; err != nil {
		return nil, translate(err)
	}
	return toUser(model, identities), nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return linkauth.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", linkauth.ErrDuplicateIdentity, err)
	default:
		return fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
}
