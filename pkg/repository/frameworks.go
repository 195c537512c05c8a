package repository

import (
	"context"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

// FrameworkRepository manages the actively tracked frameworks. There is no
// edit or delete path.
type FrameworkRepository struct {
	store *stores.RecordStore
}

// GetAll returns the active frameworks in the order they were added.
func (r *FrameworkRepository) GetAll(ctx context.Context) ([]stores.ComplianceFramework, error) {
	return stores.GetTable[stores.ComplianceFramework](ctx, r.store, stores.KeyFrameworks)
}

// Add appends a framework.
func (r *FrameworkRepository) Add(ctx context.Context, framework stores.ComplianceFramework) error {
	_, err := r.Create(ctx, framework)
	return err
}

// Create appends a framework and returns the stored record. An id already in
// use is rejected with ErrDuplicateID.
func (r *FrameworkRepository) Create(ctx context.Context, framework stores.ComplianceFramework) (stores.ComplianceFramework, error) {
	if err := validate(framework); err != nil {
		return stores.ComplianceFramework{}, err
	}
	err := stores.Mutate(ctx, r.store, stores.KeyFrameworks, func(frameworks []stores.ComplianceFramework) ([]stores.ComplianceFramework, error) {
		for _, f := range frameworks {
			if f.ID == framework.ID {
				return nil, fmt.Errorf("framework %s: %w", framework.ID, ErrDuplicateID)
			}
		}
		return append(frameworks, framework), nil
	})
	if err != nil {
		return stores.ComplianceFramework{}, err
	}
	return framework, nil
}

// ActiveNames returns the set of framework names being tracked.
func (r *FrameworkRepository) ActiveNames(ctx context.Context) (map[stores.FrameworkName]bool, error) {
	frameworks, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[stores.FrameworkName]bool, len(frameworks))
	for _, f := range frameworks {
		names[f.Name] = true
	}
	return names, nil
}
