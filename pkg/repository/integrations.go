package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

// IntegrationRepository manages evidence connectors.
type IntegrationRepository struct {
	store *stores.RecordStore
}

// GetAll returns every integration.
func (r *IntegrationRepository) GetAll(ctx context.Context) ([]stores.Integration, error) {
	return stores.GetTable[stores.Integration](ctx, r.store, stores.KeyIntegrations)
}

// Toggle flips the connected flag of an integration. Connecting stamps the
// sync time.
func (r *IntegrationRepository) Toggle(ctx context.Context, id string, now time.Time) (stores.Integration, error) {
	var toggled stores.Integration
	err := stores.Mutate(ctx, r.store, stores.KeyIntegrations, func(integrations []stores.Integration) ([]stores.Integration, error) {
		for i := range integrations {
			if integrations[i].ID != id {
				continue
			}
			integrations[i].Connected = !integrations[i].Connected
			if integrations[i].Connected {
				t := now.UTC()
				integrations[i].LastSync = &t
			}
			toggled = integrations[i]
			return integrations, nil
		}
		return nil, fmt.Errorf("integration %s %w", id, ErrNotFound)
	})
	if err != nil {
		return stores.Integration{}, err
	}
	return toggled, nil
}
