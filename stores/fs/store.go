// Package fs stores user records as JSON files, one per user. It is meant
// for development, tests and small applications; the uniqueness invariants
// are enforced under a process-wide lock, so it is not suitable for multiple
// processes sharing a directory.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panyam/linkauth"
)

// UserStore implements linkauth.UserStore over a directory of JSON files.
type UserStore struct {
	StoragePath string

	mu sync.Mutex
}

// NewUserStore creates a store rooted at storagePath.
func NewUserStore(storagePath string) *UserStore {
	return &UserStore{StoragePath: storagePath}
}

func (s *UserStore) userPath(id string) string {
	return filepath.Join(s.StoragePath, "users", id+".json")
}

func (s *UserStore) FindByLocalEmail(ctx context.Context, email string) (*linkauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan(func(u *linkauth.User) bool {
		return u.Local != nil && u.Local.Email == email
	})
}

func (s *UserStore) FindByProviderID(ctx context.Context, provider, providerID string) (*linkauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan(func(u *linkauth.User) bool {
		identity := u.Provider(provider)
		return identity != nil && identity.ProviderID == providerID
	})
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*linkauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

func (s *UserStore) Create(ctx context.Context, user *linkauth.User) (*linkauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.read(user.ID); err == nil {
		return nil, fmt.Errorf("%w: user id %s", linkauth.ErrDuplicateIdentity, user.ID)
	}
	if err := s.checkUnique(user); err != nil {
		return nil, err
	}

	saved := user.Clone()
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	if err := s.write(saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *UserStore) Save(ctx context.Context, user *linkauth.User) (*linkauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(user.ID)
	if err != nil {
		return nil, err
	}

	// Save is a plain full-record upsert. Uniqueness is only arbitrated at
	// create time; an indexed backend may additionally reject a conflicting
	// save, this store does not.
	saved := user.Clone()
	saved.CreatedAt = existing.CreatedAt
	saved.UpdatedAt = time.Now()
	if err := s.write(saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// checkUnique verifies no OTHER user claims this user's email or provider
// identities. Caller holds the lock.
func (s *UserStore) checkUnique(user *linkauth.User) error {
	others, err := s.all()
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == user.ID {
			continue
		}
		if user.Local != nil && other.Local != nil && other.Local.Email == user.Local.Email {
			return fmt.Errorf("%w: email %s", linkauth.ErrDuplicateIdentity, user.Local.Email)
		}
		for provider, identity := range user.Providers {
			if otherIdentity := other.Provider(provider); otherIdentity != nil &&
				otherIdentity.ProviderID == identity.ProviderID {
				return fmt.Errorf("%w: %s id %s", linkauth.ErrDuplicateIdentity, provider, identity.ProviderID)
			}
		}
	}
	return nil
}

func (s *UserStore) scan(match func(*linkauth.User) bool) (*linkauth.User, error) {
	users, err := s.all()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return nil, linkauth.ErrNotFound
}

func (s *UserStore) all() ([]*linkauth.User, error) {
	entries, err := os.ReadDir(filepath.Join(s.StoragePath, "users"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	var users []*linkauth.User
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		user, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *UserStore) read(id string) (*linkauth.User, error) {
	data, err := os.ReadFile(s.userPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, linkauth.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	var user linkauth.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	return &user, nil
}

func (s *UserStore) write(user *linkauth.User) error {
	path := s.userPath(user.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	if err := writeAtomicFile(path, data); err != nil {
		return fmt.Errorf("%w: %v", linkauth.ErrStoreUnavailable, err)
	}
	return nil
}
