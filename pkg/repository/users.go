package repository

import (
	"context"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

// UserRepository manages the users collection.
type UserRepository struct {
	store *stores.RecordStore
}

// GetAll returns every user in insertion order.
func (r *UserRepository) GetAll(ctx context.Context) ([]stores.User, error) {
	return stores.GetTable[stores.User](ctx, r.store, stores.KeyUsers)
}

// Create appends a user. Email uniqueness is not enforced; an id already in
// use is rejected with ErrDuplicateID.
func (r *UserRepository) Create(ctx context.Context, user stores.User) error {
	if err := validate(user); err != nil {
		return err
	}
	return stores.Mutate(ctx, r.store, stores.KeyUsers, func(users []stores.User) ([]stores.User, error) {
		for _, u := range users {
			if u.ID == user.ID {
				return nil, fmt.Errorf("user %s: %w", user.ID, ErrDuplicateID)
			}
		}
		return append(users, user), nil
	})
}

// Find returns the first user whose email matches exactly.
func (r *UserRepository) Find(ctx context.Context, email string) (stores.User, bool, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return stores.User{}, false, err
	}
	for _, u := range users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return stores.User{}, false, nil
}

// FindByID returns the user with the given id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (stores.User, bool, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return stores.User{}, false, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return stores.User{}, false, nil
}

// Update replaces the user with the same id. A missing user is a no-op.
func (r *UserRepository) Update(ctx context.Context, user stores.User) error {
	if err := validate(user); err != nil {
		return err
	}
	return stores.Mutate(ctx, r.store, stores.KeyUsers, func(users []stores.User) ([]stores.User, error) {
		for i := range users {
			if users[i].ID == user.ID {
				users[i] = user
				break
			}
		}
		return users, nil
	})
}

// Delete removes the user with the given id and reports whether one was
// removed.
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := stores.Mutate(ctx, r.store, stores.KeyUsers, func(users []stores.User) ([]stores.User, error) {
		kept := users[:0]
		for _, u := range users {
			if u.ID == id {
				removed = true
				continue
			}
			kept = append(kept, u)
		}
		return kept, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return removed, nil
}
