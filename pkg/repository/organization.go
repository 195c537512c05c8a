package repository

import (
	"context"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

// OrganizationRepository manages the singleton organization.
type OrganizationRepository struct {
	store *stores.RecordStore
}

// Get returns the organization, if one exists.
func (r *OrganizationRepository) Get(ctx context.Context) (stores.Organization, bool, error) {
	orgs, err := stores.GetTable[stores.Organization](ctx, r.store, stores.KeyOrganizations)
	if err != nil {
		return stores.Organization{}, false, err
	}
	if len(orgs) == 0 {
		return stores.Organization{}, false, nil
	}
	return orgs[0], true, nil
}

// UpdatePlan changes the organization's plan and returns the updated record.
func (r *OrganizationRepository) UpdatePlan(ctx context.Context, plan stores.Plan) (stores.Organization, error) {
	if !plan.Valid() {
		return stores.Organization{}, fmt.Errorf("%w: unknown plan %q", ErrInvalid, plan)
	}

	var updated stores.Organization
	err := stores.Mutate(ctx, r.store, stores.KeyOrganizations, func(orgs []stores.Organization) ([]stores.Organization, error) {
		if len(orgs) == 0 {
			return nil, fmt.Errorf("organization %w", ErrNotFound)
		}
		orgs[0].Plan = plan
		updated = orgs[0]
		// Extra rows written by an older build are dropped
		return orgs[:1], nil
	})
	if err != nil {
		return stores.Organization{}, err
	}
	return updated, nil
}

// Save writes org as the only organization row.
func (r *OrganizationRepository) Save(ctx context.Context, org stores.Organization) error {
	if err := validate(org); err != nil {
		return err
	}
	return stores.SaveTable(ctx, r.store, stores.KeyOrganizations, []stores.Organization{org})
}
