package repository

import (
	"context"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

// RiskRepository manages the risks collection. Risks are never deleted.
type RiskRepository struct {
	store *stores.RecordStore
}

// GetAll returns every risk, newest first.
func (r *RiskRepository) GetAll(ctx context.Context) ([]stores.Risk, error) {
	return stores.GetTable[stores.Risk](ctx, r.store, stores.KeyRisks)
}

// Update upserts a risk: an existing id is replaced in place, a new id is
// prepended.
func (r *RiskRepository) Update(ctx context.Context, risk stores.Risk) error {
	if err := validate(risk); err != nil {
		return err
	}
	return stores.Mutate(ctx, r.store, stores.KeyRisks, func(risks []stores.Risk) ([]stores.Risk, error) {
		for i := range risks {
			if risks[i].ID == risk.ID {
				risks[i] = risk
				return risks, nil
			}
		}
		return append([]stores.Risk{risk}, risks...), nil
	})
}

// UpdateMany upserts several risks in one write. Used to persist AI scores.
// When updates repeat a new id the last one wins and it is prepended once.
func (r *RiskRepository) UpdateMany(ctx context.Context, updates []stores.Risk) error {
	for _, risk := range updates {
		if err := validate(risk); err != nil {
			return err
		}
	}
	return stores.Mutate(ctx, r.store, stores.KeyRisks, func(risks []stores.Risk) ([]stores.Risk, error) {
		index := make(map[string]int, len(risks))
		for i, risk := range risks {
			index[risk.ID] = i
		}
		var fresh []stores.Risk
		freshIndex := make(map[string]int)
		for _, u := range updates {
			if i, ok := index[u.ID]; ok {
				risks[i] = u
				continue
			}
			if i, ok := freshIndex[u.ID]; ok {
				fresh[i] = u
				continue
			}
			freshIndex[u.ID] = len(fresh)
			fresh = append(fresh, u)
		}
		return append(fresh, risks...), nil
	})
}

// Get returns the risk with the given id.
func (r *RiskRepository) Get(ctx context.Context, id string) (stores.Risk, bool, error) {
	risks, err := r.GetAll(ctx)
	if err != nil {
		return stores.Risk{}, false, err
	}
	for _, risk := range risks {
		if risk.ID == id {
			return risk, true, nil
		}
	}
	return stores.Risk{}, false, nil
}

// Modify applies fn to the risk with the given id and writes it back in one
// locked read-modify-write. A missing id returns ErrNotFound.
func (r *RiskRepository) Modify(ctx context.Context, id string, fn func(*stores.Risk) error) (stores.Risk, error) {
	var updated stores.Risk
	err := stores.Mutate(ctx, r.store, stores.KeyRisks, func(risks []stores.Risk) ([]stores.Risk, error) {
		for i := range risks {
			if risks[i].ID != id {
				continue
			}
			candidate := risks[i]
			if err := fn(&candidate); err != nil {
				return nil, err
			}
			if err := validate(candidate); err != nil {
				return nil, err
			}
			risks[i] = candidate
			updated = candidate
			return risks, nil
		}
		return nil, fmt.Errorf("risk %s %w", id, ErrNotFound)
	})
	if err != nil {
		return stores.Risk{}, err
	}
	return updated, nil
}
