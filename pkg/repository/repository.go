package repository

import (
	"errors"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

var (
	// ErrNotFound is returned when an entity that must exist is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is returned when a record fails validation.
	ErrInvalid = errors.New("invalid record")

	// ErrDuplicateID is returned when a created record reuses an existing id.
	ErrDuplicateID = errors.New("duplicate id")
)

// Repositories groups every repository over one store.
type Repositories struct {
	Users        *UserRepository
	Risks        *RiskRepository
	Frameworks   *FrameworkRepository
	AuditLogs    *AuditLogRepository
	Organization *OrganizationRepository
	Integrations *IntegrationRepository
	Sessions     *SessionRepository
}

// New creates the repositories backed by store.
func New(store *stores.RecordStore) *Repositories {
	return &Repositories{
		Users:        &UserRepository{store: store},
		Risks:        &RiskRepository{store: store},
		Frameworks:   &FrameworkRepository{store: store},
		AuditLogs:    &AuditLogRepository{store: store},
		Organization: &OrganizationRepository{store: store},
		Integrations: &IntegrationRepository{store: store},
		Sessions:     &SessionRepository{store: store},
	}
}

func validate(record any) error {
	if err := stores.Validate(record); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
