package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// CatalogEntry is a framework that can be added to the tracked set.
type CatalogEntry struct {
	Name        stores.FrameworkName `json:"name"`
	Region      string               `json:"region"`
	Description string               `json:"description"`
}

// AvailableFrameworks is the catalog of standards offered for tracking.
var AvailableFrameworks = []CatalogEntry{
	{Name: stores.FrameworkHIPAA, Region: "US", Description: "Healthcare data protection"},
	{Name: stores.FrameworkISO27001, Region: "Global", Description: "Information security management"},
	{Name: stores.FrameworkPCIDSS, Region: "Global", Description: "Payment card industry security"},
	{Name: stores.FrameworkCCPA, Region: "US-CA", Description: "California consumer privacy"},
	{Name: stores.FrameworkNIST, Region: "US", Description: "Federal information systems security"},
}

// FilterCatalog returns the catalog entries whose name is not active and
// whose name or description contains search (case-insensitive).
func FilterCatalog(catalog []CatalogEntry, active map[stores.FrameworkName]bool, search string) []CatalogEntry {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]CatalogEntry, 0, len(catalog))
	for _, e := range catalog {
		if active[e.Name] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(string(e.Name)), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FrameworkService manages the tracked compliance frameworks.
type FrameworkService struct {
	c *core
}

// List returns the tracked frameworks.
func (s *FrameworkService) List(ctx context.Context) (_ []stores.ComplianceFramework, err error) {
	cl, err := s.c.start(ctx, string(access.OpFrameworksList), access.OpFrameworksList)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	return s.c.repos.Frameworks.GetAll(cl.ctx())
}

// Create starts tracking a framework. A framework whose name is already
// tracked is rejected with ErrConflict. A missing id is generated; a missing
// status, audit date and organization are defaulted.
func (s *FrameworkService) Create(ctx context.Context, fw stores.ComplianceFramework) (_ stores.ComplianceFramework, err error) {
	cl, err := s.c.start(ctx, string(access.OpFrameworksCreate), access.OpFrameworksCreate)
	if err != nil {
		return stores.ComplianceFramework{}, err
	}
	defer func() { err = cl.end(err) }()

	active, err := s.c.repos.Frameworks.ActiveNames(cl.ctx())
	if err != nil {
		return stores.ComplianceFramework{}, err
	}
	if active[fw.Name] {
		return stores.ComplianceFramework{}, newError(KindConflict, cl.op, fmt.Sprintf("%s is already tracked", fw.Name), nil)
	}

	if fw.ID == "" {
		fw.ID = uuid.NewString()
	}
	if fw.Status == "" {
		fw.Status = stores.ComplianceInReview
	}
	if fw.NextAuditDate == "" {
		fw.NextAuditDate = s.c.now().UTC().AddDate(1, 0, 0).Format("2006-01-02")
	}
	if fw.OrganizationID == "" {
		fw.OrganizationID = cl.actor.OrganizationID
	}

	created, err := s.c.repos.Frameworks.Create(cl.ctx(), fw)
	if err != nil {
		return stores.ComplianceFramework{}, err
	}

	cl.publish(telemetry.EventTypeFrameworkAdded, created.ID, string(created.Name))
	return created, cl.audit(fmt.Sprintf("Framework added: %s", created.Name))
}

// Catalog returns the catalog entries that are not tracked yet, optionally
// narrowed by search.
func (s *FrameworkService) Catalog(ctx context.Context, search string) (_ []CatalogEntry, err error) {
	cl, err := s.c.start(ctx, string(access.OpFrameworksCatalog), access.OpFrameworksCatalog)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	active, err := s.c.repos.Frameworks.ActiveNames(cl.ctx())
	if err != nil {
		return nil, err
	}
	return FilterCatalog(AvailableFrameworks, active, search), nil
}

// AddFromCatalog tracks the catalog entry named name, starting in review at
// zero progress.
func (s *FrameworkService) AddFromCatalog(ctx context.Context, name stores.FrameworkName) (stores.ComplianceFramework, error) {
	for _, e := range AvailableFrameworks {
		if e.Name == name {
			return s.Create(ctx, stores.ComplianceFramework{
				Name:     e.Name,
				Region:   e.Region,
				Status:   stores.ComplianceInReview,
				Progress: 0,
			})
		}
	}
	return stores.ComplianceFramework{}, newError(KindNotFound, string(access.OpFrameworksCreate),
		fmt.Sprintf("%s is not in the catalog", name), nil)
}
