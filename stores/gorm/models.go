package gorm

import (
	"time"

	"github.com/panyam/linkauth"
)

// UserModel is the GORM model for users. The local credential is flattened
// onto the row; a null email means no local credential.
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	LocalEmail   *string   `gorm:"uniqueIndex;size:255"`
	PasswordHash string    `gorm:"size:128"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

// ProviderIdentityModel is the GORM model for linked provider identities.
// The composite unique index enforces one owner per (provider, provider id).
type ProviderIdentityModel struct {
	UserID      string    `gorm:"primaryKey;size:64"`
	Provider    string    `gorm:"primaryKey;size:32;uniqueIndex:idx_provider_identity"`
	ProviderID  string    `gorm:"size:255;uniqueIndex:idx_provider_identity"`
	Token       string    `gorm:"size:512"`
	DisplayName string    `gorm:"size:255"`
	Email       string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (ProviderIdentityModel) TableName() string {
	return "provider_identities"
}

func toModels(u *linkauth.User) (*UserModel, []ProviderIdentityModel) {
	model := &UserModel{ID: u.ID}
	if u.Local != nil {
		email := u.Local.Email
		model.LocalEmail = &email
		model.PasswordHash = u.Local.PasswordHash
	}
	var identities []ProviderIdentityModel
	for provider, identity := range u.Providers {
		identities = append(identities, ProviderIdentityModel{
			UserID:      u.ID,
			Provider:    provider,
			ProviderID:  identity.ProviderID,
			Token:       identity.Token,
			DisplayName: identity.DisplayName,
			Email:       identity.Email,
		})
	}
	return model, identities
}

func toUser(model *UserModel, identities []ProviderIdentityModel) *linkauth.User {
	user := &linkauth.User{
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.LocalEmail != nil {
		user.Local = &linkauth.LocalCredential{
			Email:        *model.LocalEmail,
			PasswordHash: model.PasswordHash,
		}
	}
	for _, identity := range identities {
		user.SetProvider(identity.Provider, &linkauth.ProviderIdentity{
			ProviderID:  identity.ProviderID,
			Token:       identity.Token,
			DisplayName: identity.DisplayName,
			Email:       identity.Email,
		})
	}
	return user
}
