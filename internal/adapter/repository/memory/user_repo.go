package memory

import (
	"context"
	"sort"

	"github.com/ucubank/bankaccounts/internal/domain"
)

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create creates a new user.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return domain.ErrUserExists
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return domain.ErrUserExists
		}
	}

	cp := *user
	s.users[user.ID] = &cp

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	cp := *u
	return &cp, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}

	return nil, domain.ErrUserNotFound
}

// List lists users ordered by creation time, then id.
func (r *UserRepository) List(_ context.Context, limit, offset int) ([]*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return page(users, limit, offset), nil
}

// Count returns the number of users.
func (r *UserRepository) Count(context.Context) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.users)), nil
}

// Delete removes the user, leaving their accounts holder-less and their
// receipts without a user reference. It waits for transactions holding any
// of the user's accounts.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	s := r.store

	s.mu.RLock()
	_, ok := s.users[id]
	var held []string
	for accID, acc := range s.accounts {
		if acc.HeldBy(id) {
			held = append(held, accID)
		}
	}
	s.mu.RUnlock()

	if !ok {
		return domain.ErrUserNotFound
	}

	release, err := s.lockAccounts(ctx, held)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}

	delete(s.users, id)

	for _, acc := range s.accounts {
		acc.HolderID = clearRef(acc.HolderID, id)
	}
	for _, rc := range s.internal {
		rc.UserID = clearRef(rc.UserID, id)
	}
	for _, rc := range s.external {
		rc.PayerID = clearRef(rc.PayerID, id)
		rc.PayeeID = clearRef(rc.PayeeID, id)
	}

	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}

	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}

	return items[offset:end]
}
