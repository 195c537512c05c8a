package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

func TestCatalogExcludesActiveFrameworks(t *testing.T) {
	f, _ := setupFacade(t)
	ctx := actingAs(t, f, adminEmail)

	// the catalog itself never offers GDPR; check the filter directly too
	filtered := FilterCatalog(
		append([]CatalogEntry{{Name: stores.FrameworkGDPR, Region: "EU"}}, AvailableFrameworks...),
		map[stores.FrameworkName]bool{stores.FrameworkGDPR: true}, "")
	for _, e := range filtered {
		assert.NotEqual(t, stores.FrameworkGDPR, e.Name)
	}

	catalog, err := f.Frameworks.Catalog(ctx, "")
	require.NoError(t, err)
	assert.Len(t, catalog, len(AvailableFrameworks))

	added, err := f.Frameworks.AddFromCatalog(ctx, stores.FrameworkHIPAA)
	require.NoError(t, err)
	assert.Equal(t, stores.ComplianceInReview, added.Status)
	assert.Equal(t, 0, added.Progress)
	assert.Equal(t, "US", added.Region)
	assert.NotEmpty(t, added.ID)

	catalog, err = f.Frameworks.Catalog(ctx, "")
	require.NoError(t, err)
	for _, e := range catalog {
		assert.NotEqual(t, stores.FrameworkHIPAA, e.Name)
	}

	privacy, err := f.Frameworks.Catalog(ctx, "privacy")
	require.NoError(t, err)
	require.Len(t, privacy, 1)
	assert.Equal(t, stores.FrameworkCCPA, privacy[0].Name)

	_, err = f.Frameworks.Create(ctx, stores.ComplianceFramework{Name: stores.FrameworkGDPR, Status: stores.ComplianceInReview})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.Frameworks.AddFromCatalog(ctx, stores.FrameworkSOC2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Frameworks.Create(ctx, stores.ComplianceFramework{ID: "1", Name: stores.FrameworkNIST, Status: stores.ComplianceInReview})
	assert.ErrorIs(t, err, ErrConflict, "framework ids are never reused")

	frameworks, err := f.Frameworks.List(ctx)
	require.NoError(t, err)
	require.Len(t, frameworks, 3)
	assert.Equal(t, stores.FrameworkHIPAA, frameworks[2].Name, "frameworks are appended")
}

func TestTeamManagement(t *testing.T) {
	f, _ := setupFacade(t)
	admin := actingAs(t, f, adminEmail)

	invited, err := f.Team.Invite(admin, stores.User{Name: "olivia park", Email: "olivia@complyeasy.ai"})
	require.NoError(t, err)
	assert.Equal(t, stores.RoleViewer, invited.Role)
	assert.Equal(t, "OL", invited.Avatar)
	assert.Equal(t, "org1", invited.OrganizationID)

	promoted, err := f.Team.UpdateRole(admin, invited.ID, stores.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, stores.RoleEditor, promoted.Role)

	_, err = f.Team.UpdateRole(admin, invited.ID, "owner")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = f.Team.UpdateRole(admin, "u1", stores.RoleViewer)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.Team.UpdateRole(admin, "u404", stores.RoleViewer)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.Team.Remove(admin, "u1"), ErrConflict)
	assert.ErrorIs(t, f.Team.Remove(admin, "u404"), ErrNotFound)
	require.NoError(t, f.Team.Remove(admin, invited.ID))

	members, err := f.Team.List(admin)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	_, err = f.Team.Invite(actingAs(t, f, editorEmail), stores.User{Name: "X", Email: "x@x.io"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.Team.Invite(admin, stores.User{ID: "u2", Name: "Mallory", Email: "mallory@x.io"})
	assert.ErrorIs(t, err, ErrConflict)
	mike, _, err := f.Auth.c.repos.Users.FindByID(admin, "u2")
	require.NoError(t, err)
	assert.Equal(t, editorEmail, mike.Email)

	logs, _ := f.Audit.List(admin)
	assert.Equal(t, "Removed user "+invited.ID, logs[0].Action)
}

func TestIntegrationToggle(t *testing.T) {
	f, _ := setupFacade(t)
	admin := actingAs(t, f, adminEmail)

	integrations, err := f.Integrations.List(admin)
	require.NoError(t, err)
	require.NotEmpty(t, integrations)

	var jira stores.Integration
	for _, in := range integrations {
		if in.Name == "Jira" {
			jira = in
		}
	}
	require.False(t, jira.Connected)

	toggled, err := f.Integrations.Toggle(admin, jira.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Connected)
	assert.NotNil(t, toggled.LastSync)

	_, err = f.Integrations.Toggle(admin, "i404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Integrations.List(actingAs(t, f, viewerEmail))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAIServiceAuthorizes(t *testing.T) {
	f, _ := setupFacade(t, withOracle(stubOracle{out: "## Gaps"}))

	_, err := f.AI.Assistant(t.Context())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	viewer := actingAs(t, f, viewerEmail)
	assistant, err := f.AI.Assistant(viewer)
	require.NoError(t, err)
	assert.True(t, assistant.Configured())

	res, err := f.AI.GapAnalysis(viewer, "HIPAA")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "## Gaps", res.Value)

	report, err := f.AI.ComplianceReport(viewer, "SOC 2 Type II", "")
	require.NoError(t, err)
	assert.True(t, report.OK())
}
