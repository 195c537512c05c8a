package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

type fakeOracle struct {
	out      string
	err      error
	requests []Request
}

func (f *fakeOracle) Generate(_ context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.out, f.err
}

func TestAssistantUnconfigured(t *testing.T) {
	a := NewAssistant(nil, nil, nil)
	ctx := context.Background()

	assert.False(t, a.Configured())

	res := a.Chat(ctx, "hello")
	assert.False(t, res.OK())
	assert.Equal(t, FailureUnconfigured, res.Failure)
	assert.ErrorIs(t, res.Err, ErrUnconfigured)
	assert.NotEmpty(t, res.Message())

	scores := a.PrioritizeRisks(ctx, []stores.Risk{{ID: "r1"}})
	assert.Equal(t, FailureUnconfigured, scores.Failure)
}

func TestAssistantTextFeatures(t *testing.T) {
	oracle := &fakeOracle{out: "  ## Summary\n"}
	a := NewAssistant(oracle, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func() Result[string]
		feature string
		contain string
	}{
		{"report", func() Result[string] { return a.ComplianceReport(ctx, "SOC 2", "Acme Corp", "cloud only") }, FeatureReport, "Acme Corp"},
		{"chat", func() Result[string] { return a.Chat(ctx, "what is SOC 2?") }, FeatureChat, "User: what is SOC 2?"},
		{"remediation", func() Result[string] { return a.Remediation(ctx, "open S3 bucket") }, FeatureRemediation, "open S3 bucket"},
		{"policy", func() Result[string] { return a.Policy(ctx, "Access Control", "Acme", "formal") }, FeaturePolicy, "formal Access Control policy for Acme"},
		{"gap", func() Result[string] { return a.GapAnalysis(ctx, []string{"GDPR", "SOC 2 Type II"}, "HIPAA") }, FeatureGap, "current=GDPR,SOC 2 Type II, target=HIPAA"},
		{"evidence", func() Result[string] { return a.ClassifyEvidence(ctx, "mfa.png") }, FeatureEvidence, "mfa.png"},
		{"rfp", func() Result[string] { return a.RFPResponse(ctx, "Do you encrypt?", "AES-256") }, FeatureRFP, "AES-256"},
		{"phishing", func() Result[string] { return a.PhishingSimulation(ctx, "payroll", "Finance") }, FeaturePhishing, "Finance department"},
		{"vendor", func() Result[string] { return a.VendorRisk(ctx, "Stripe", "payments", "card data") }, FeatureVendor, "Stripe"},
		{"datamap", func() Result[string] { return a.DataMap(ctx, "hiring") }, FeatureDataMap, "hiring"},
		{"bcp", func() Result[string] { return a.BCP(ctx, "region outage") }, FeatureBCP, "region outage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.call()
			require.True(t, res.OK())
			assert.Equal(t, "## Summary", res.Value)

			last := oracle.requests[len(oracle.requests)-1]
			assert.Equal(t, tt.feature, last.Feature)
			assert.Contains(t, last.Prompt, tt.contain)
			assert.Nil(t, last.Schema)
		})
	}
}

func TestAssistantContractTruncated(t *testing.T) {
	oracle := &fakeOracle{out: "ok"}
	a := NewAssistant(oracle, nil, nil)

	contract := strings.Repeat("a", 2500) + "TAIL"
	res := a.ContractAnalysis(context.Background(), contract)
	require.True(t, res.OK())

	prompt := oracle.requests[0].Prompt
	assert.NotContains(t, prompt, "TAIL")
	assert.Contains(t, prompt, strings.Repeat("a", 2000)+"...")
}

func TestAssistantFailures(t *testing.T) {
	ctx := context.Background()

	upstream := NewAssistant(&fakeOracle{err: errors.New("503")}, nil, nil).Chat(ctx, "hi")
	assert.Equal(t, FailureUpstream, upstream.Failure)
	assert.EqualError(t, upstream.Err, "503")

	empty := NewAssistant(&fakeOracle{out: " \n"}, nil, nil).Chat(ctx, "hi")
	assert.Equal(t, FailureEmpty, empty.Failure)
}

func TestPrioritizeRisks(t *testing.T) {
	risks := []stores.Risk{
		{ID: "r1", Description: "Unencrypted S3 bucket", Severity: stores.SeverityHigh},
		{ID: "r2", Description: "Stale admin accounts", Severity: stores.SeverityMedium},
	}

	t.Run("scores are clamped and filtered", func(t *testing.T) {
		oracle := &fakeOracle{out: `[
			{"id":"r1","score":140,"rationale":"public data"},
			{"id":"r2","score":-3,"rationale":"internal"},
			{"id":"r9","score":50,"rationale":"unknown"}
		]`}
		res := NewAssistant(oracle, nil, nil).PrioritizeRisks(context.Background(), risks)
		require.True(t, res.OK(), res.Message())

		assert.Equal(t, []RiskScore{
			{ID: "r1", Score: 100, Rationale: "public data"},
			{ID: "r2", Score: 0, Rationale: "internal"},
		}, res.Value)

		req := oracle.requests[0]
		assert.Equal(t, FeaturePrioritize, req.Feature)
		require.NotNil(t, req.Schema)
		assert.Contains(t, req.Prompt, `"desc":"Unencrypted S3 bucket"`)
		assert.Contains(t, req.Prompt, `"sev":"High"`)
	})

	t.Run("malformed response", func(t *testing.T) {
		res := NewAssistant(&fakeOracle{out: "not json"}, nil, nil).PrioritizeRisks(context.Background(), risks)
		assert.Equal(t, FailureMalformed, res.Failure)
		assert.Error(t, res.Err)
	})

	t.Run("no risks skips the oracle", func(t *testing.T) {
		oracle := &fakeOracle{}
		res := NewAssistant(oracle, nil, nil).PrioritizeRisks(context.Background(), nil)
		require.True(t, res.OK())
		assert.Empty(t, res.Value)
		assert.Empty(t, oracle.requests)
	})
}

func TestNewGenAIOracleRequiresKey(t *testing.T) {
	_, err := NewGenAIOracle(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrUnconfigured)
}
