// Package mongo backs the linkauth user store with a MongoDB collection.
// Uniqueness of the local email and of each (provider, provider id) pair is
// enforced with partial unique indexes, so a create/create race is settled
// by the server: one insert wins, the other observes a duplicate-key error.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/panyam/linkauth"
)

const userCollection = "users"

type localDoc struct {
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
}

type providerDoc struct {
	ID          string `bson:"id"`
	Token       string `bson:"token"`
	DisplayName string `bson:"display_name"`
	Email       string `bson:"email"`
}

// userDoc mirrors the document layout: provider identities live as embedded
// sub-documents under fixed field names so each can carry its own unique
// index.
type userDoc struct {
	ID        string       `bson:"_id"`
	Local     *localDoc    `bson:"local,omitempty"`
	Facebook  *providerDoc `bson:"facebook,omitempty"`
	Twitter   *providerDoc `bson:"twitter,omitempty"`
	Google    *providerDoc `bson:"google,omitempty"`
	CreatedAt time.Time    `bson:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

func toDoc(u *linkauth.User) *userDoc {
	doc := &userDoc{ID: u.ID, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
	if u.Local != nil {
		doc.Local = &localDoc{Email: u.Local.Email, PasswordHash: u.Local.PasswordHash}
	}
	for provider, identity := range u.Providers {
		sub := &providerDoc{
			ID:          identity.ProviderID,
			Token:       identity.Token,
			DisplayName: identity.DisplayName,
			Email:       identity.Email,
		}
		switch provider {
		case linkauth.ProviderFacebook:
			doc.Facebook = sub
		case linkauth.ProviderTwitter:
			doc.Twitter = sub
		case linkauth.ProviderGoogle:
			doc.Google = sub
		}
	}
	return doc
}

func fromDoc(doc *userDoc) *linkauth.User {
	user := &linkauth.User{ID: doc.ID, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt}
	if doc.Local != nil {
		user.Local = &linkauth.LocalCredential{Email: doc.Local.Email, PasswordHash: doc.Local.PasswordHash}
	}
	for provider, sub := range map[string]*providerDoc{
		linkauth.ProviderFacebook: doc.Facebook,
		linkauth.ProviderTwitter:  doc.Twitter,
		linkauth.ProviderGoogle:   doc.Google,
	} {
		if sub != nil {
			user.SetProvider(provider, &linkauth.ProviderIdentity{
				ProviderID:  sub.ID,
				Token:       sub.Token,
				DisplayName: sub.DisplayName,
				Email:       sub.Email,
			})
		}
	}
	return user
}

// UserStore implements linkauth.UserStore over a MongoDB database.
type UserStore struct {
	db *mongo.Database
}

// NewUserStore creates the store and ensures its unique indexes exist.
func NewUserStore(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) *UserStore {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		uniqueIfPresent("local.email"),
		uniqueIfPresent("facebook.id"),
		uniqueIfPresent("twitter.id"),
		uniqueIfPresent("google.id"),
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &UserStore{db: db}
}

// uniqueIfPresent builds a unique index that only applies to documents
// carrying the field, so users without that identity don't collide on null.
func uniqueIfPresent(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: field, Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.D{{Key: field, Value: bson.D{{Key: "$exists", Value: true}}}}),
	}
}

func (s *UserStore) FindByLocalEmail(ctx context.Context, email string) (*linkauth.User, error) {
	return s.findOne(ctx, bson.M{"local.email": email})
}

func (s *UserStore) FindByProviderID(ctx context.Context, provider, providerID string) (*linkauth.User, error) {
	if !linkauth.KnownProvider(provider) {
		return nil, fmt.Errorf("%w: %q", linkauth.ErrUnknownProvider, provider)
	}
	return s.findOne(ctx, bson.M{provider + ".id": providerID})
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*linkauth.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*linkauth.User, error) {
	result := s.db.Collection(userCollection).FindOne(ctx, filter)
	var doc userDoc
	if err := result.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, linkauth.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	return fromDoc(&doc), nil
}

func (s *UserStore) Create(ctx context.Context, user *linkauth.User) (*linkauth.User, error) {
	doc := toDoc(user)
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.db.Collection(userCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", linkauth.ErrDuplicateIdentity, err)
		}
		return nil, fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	return fromDoc(doc), nil
}

func (s *UserStore) Save(ctx context.Context, user *linkauth.User) (*linkauth.User, error) {
	existing, err := s.findOne(ctx, bson.M{"_id": user.ID})
	if err != nil {
		return nil, err
	}

	doc := toDoc(user)
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now()

	if _, err := s.db.Collection(userCollection).ReplaceOne(ctx, bson.M{"_id": user.ID}, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", linkauth.ErrDuplicateIdentity, err)
		}
		return nil, fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	return fromDoc(doc), nil
}
