package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyeasy/complyeasy/pkg/ai"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

type stubOracle struct {
	out string
	err error
}

func (s stubOracle) Generate(context.Context, ai.Request) (string, error) {
	return s.out, s.err
}

func withOracle(o ai.Oracle) Option {
	return WithAssistant(ai.NewAssistant(o, nil, nil))
}

func ptr[T any](v T) *T { return &v }

func TestRiskUpdateReplacesInPlace(t *testing.T) {
	f, _ := setupFacade(t)
	ctx := actingAs(t, f, editorEmail)

	before, err := f.Risks.List(ctx)
	require.NoError(t, err)

	r1 := before[0]
	require.Equal(t, "r1", r1.ID)
	r1.Status = stores.RiskStatusResolved
	_, err = f.Risks.Update(ctx, r1)
	require.NoError(t, err)

	after, err := f.Risks.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	assert.Equal(t, stores.RiskStatusResolved, after[0].Status)

	_, err = f.Risks.Update(ctx, stores.Risk{ID: "r-new", Severity: stores.SeverityLow, Description: "new", Status: stores.RiskStatusOpen})
	require.NoError(t, err)
	after, _ = f.Risks.List(ctx)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "r-new", after[0].ID)

	_, err = f.Risks.Update(ctx, stores.Risk{ID: "r-bad", Severity: "Critical", Description: "x", Status: stores.RiskStatusOpen})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRiskCreateOverwritesDuplicateID(t *testing.T) {
	f, _ := setupFacade(t)
	ctx := actingAs(t, f, adminEmail)

	before, _ := f.Risks.List(ctx)

	_, err := f.Risks.Create(ctx, stores.Risk{ID: "r2", Severity: stores.SeverityHigh, Description: "Overwritten"})
	require.NoError(t, err)

	after, _ := f.Risks.List(ctx)
	require.Len(t, after, len(before))
	assert.Equal(t, "Overwritten", after[1].Description)

	created, err := f.Risks.Create(ctx, stores.Risk{Severity: stores.SeverityLow, Description: "Generated id"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.ID, "r_"))
	assert.False(t, created.DetectedAt.IsZero())
	assert.Equal(t, "org1", created.OrganizationID)
}

func TestScan(t *testing.T) {
	f, _ := setupFacade(t)
	ctx := actingAs(t, f, editorEmail)

	risk, err := f.Risks.Scan(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(risk.ID, "r-new-"))
	assert.Equal(t, stores.SeverityHigh, risk.Severity)
	assert.Equal(t, "Infrastructure", risk.Category)
	assert.Equal(t, stores.RiskStatusOpen, risk.Status)

	risks, _ := f.Risks.List(ctx)
	assert.Equal(t, risk.ID, risks[0].ID)

	logs, _ := f.Audit.List(ctx)
	assert.Equal(t, "Security scan detected risk "+risk.ID, logs[0].Action)
	assert.Equal(t, "Mike Ross", logs[0].User)
}

func TestAssignAndMyTasks(t *testing.T) {
	f, _ := setupFacade(t)
	admin := actingAs(t, f, adminEmail)

	risk, err := f.Risks.Assign(admin, RiskAssignment{
		ID:       "r2",
		Assignee: ptr("Mike Ross"),
		Status:   stores.RiskStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mike Ross", risk.AssignedTo)
	assert.Equal(t, "MR", risk.AssignedAvatar)

	_, err = f.Risks.Assign(admin, RiskAssignment{ID: "r1", Assignee: ptr("Mike Ross")})
	require.NoError(t, err)

	mike := actingAs(t, f, editorEmail)
	tasks, err := f.Risks.MyTasks(mike, RiskQuery{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "r1", tasks[0].ID, "High sorts before Medium")

	inProgress, err := f.Risks.MyTasks(mike, RiskQuery{Status: stores.RiskStatusInProgress})
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, "r2", inProgress[0].ID)

	_, err = f.Risks.MyTasks(context.Background(), RiskQuery{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.Risks.Assign(admin, RiskAssignment{ID: "nope", Status: stores.RiskStatusResolved})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Risks.Assign(admin, RiskAssignment{ID: "r1", Status: "Snoozed"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRiskQuery(t *testing.T) {
	risks := []stores.Risk{
		{ID: "a", Severity: stores.SeverityLow, AIPriorityScore: ptr(90)},
		{ID: "b", Severity: stores.SeverityHigh},
		{ID: "c", Severity: stores.SeverityMedium, AIPriorityScore: ptr(40)},
	}

	ids := func(rs []stores.Risk) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"b", "c", "a"}, ids(RiskQuery{Sort: SortSeverity}.apply(risks)))
	assert.Equal(t, []string{"a", "c", "b"}, ids(RiskQuery{Sort: SortSeverity, Ascending: true}.apply(risks)))
	assert.Equal(t, []string{"a", "c", "b"}, ids(RiskQuery{Sort: SortAIScore}.apply(risks)))
	assert.Equal(t, []string{"c"}, ids(RiskQuery{Severity: stores.SeverityMedium}.apply(risks)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(RiskQuery{}.apply(risks)))
}

func TestPrioritize(t *testing.T) {
	oracle := stubOracle{out: `[{"id":"r3","score":95,"rationale":"contractual exposure"},{"id":"r1","score":80,"rationale":"public data"}]`}
	f, _ := setupFacade(t, withOracle(oracle))
	ctx := actingAs(t, f, editorEmail)

	out, err := f.Risks.Prioritize(ctx)
	require.NoError(t, err)
	require.Empty(t, out.Failure)
	require.Len(t, out.Risks, 3)
	assert.Equal(t, "r3", out.Risks[0].ID)
	assert.Equal(t, "r1", out.Risks[1].ID)

	stored, err := f.Risks.List(ctx)
	require.NoError(t, err)
	for _, r := range stored {
		switch r.ID {
		case "r1":
			require.NotNil(t, r.AIPriorityScore)
			assert.Equal(t, 80, *r.AIPriorityScore)
		case "r2":
			assert.Nil(t, r.AIPriorityScore)
		case "r3":
			assert.Equal(t, "contractual exposure", r.AIRationale)
		}
	}
}

func TestPrioritizeFailuresAreOutcomes(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want ai.FailureKind
	}{
		{"unconfigured", nil, ai.FailureUnconfigured},
		{"upstream", []Option{withOracle(stubOracle{err: errors.New("quota exceeded")})}, ai.FailureUpstream},
		{"empty", []Option{withOracle(stubOracle{out: ""})}, ai.FailureEmpty},
		{"malformed", []Option{withOracle(stubOracle{out: "Sorry, I cannot help"})}, ai.FailureMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := setupFacade(t, tt.opts...)
			ctx := actingAs(t, f, adminEmail)

			out, err := f.Risks.Prioritize(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Failure)
			assert.NotEmpty(t, out.Message)
			assert.Len(t, out.Risks, 3)

			stored, _ := f.Risks.List(ctx)
			for _, r := range stored {
				assert.Nil(t, r.AIPriorityScore)
			}
		})
	}
}

func TestRemediate(t *testing.T) {
	f, _ := setupFacade(t, withOracle(stubOracle{out: "1. Enable bucket encryption"}))
	ctx := actingAs(t, f, editorEmail)

	out, err := f.Risks.Remediate(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "1. Enable bucket encryption", out.Plan)

	risk, _ := f.Risks.Query(ctx, RiskQuery{})
	assert.Equal(t, "1. Enable bucket encryption", risk[0].MitigationPlan)

	_, err = f.Risks.Remediate(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	unconfigured, _ := setupFacade(t)
	out, err = unconfigured.Risks.Remediate(actingAs(t, unconfigured, editorEmail), "r1")
	require.NoError(t, err)
	assert.Equal(t, ai.FailureUnconfigured, out.Failure)
	assert.Empty(t, out.Plan)
}
