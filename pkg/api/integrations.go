package api

import (
	"context"
	"fmt"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// IntegrationService manages evidence connectors.
type IntegrationService struct {
	c *core
}

// List returns every integration.
func (s *IntegrationService) List(ctx context.Context) (_ []stores.Integration, err error) {
	cl, err := s.c.start(ctx, string(access.OpIntegrationsList), access.OpIntegrationsList)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	return s.c.repos.Integrations.GetAll(cl.ctx())
}

// Toggle connects or disconnects an integration.
func (s *IntegrationService) Toggle(ctx context.Context, id string) (_ stores.Integration, err error) {
	cl, err := s.c.start(ctx, string(access.OpIntegrationsToggle), access.OpIntegrationsToggle)
	if err != nil {
		return stores.Integration{}, err
	}
	defer func() { err = cl.end(err) }()

	in, err := s.c.repos.Integrations.Toggle(cl.ctx(), id, s.c.now())
	if err != nil {
		return stores.Integration{}, err
	}

	state := "disconnected"
	if in.Connected {
		state = "connected"
	}
	cl.publish(telemetry.EventTypeIntegrationToggled, in.ID, fmt.Sprintf("%s %s", in.Name, state))
	return in, cl.audit(fmt.Sprintf("Integration %s %s", in.Name, state))
}
