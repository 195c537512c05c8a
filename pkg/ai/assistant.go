package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// maxContractChars bounds the contract text sent for analysis.
const maxContractChars = 2000

// Feature names, used for metrics and logs.
const (
	FeatureReport      = "report"
	FeatureChat        = "chat"
	FeatureRemediation = "remediation"
	FeaturePolicy      = "policy"
	FeatureContract    = "contract"
	FeatureGap         = "gap"
	FeatureEvidence    = "evidence"
	FeatureRFP         = "rfp"
	FeaturePhishing    = "phishing"
	FeatureVendor      = "vendor"
	FeatureDataMap     = "datamap"
	FeatureBCP         = "bcp"
	FeaturePrioritize  = "prioritize"
)

// RiskScore is the oracle's assessment of one risk.
type RiskScore struct {
	ID        string `json:"id"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

var riskScoreSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":        {Type: genai.TypeString},
			"score":     {Type: genai.TypeInteger},
			"rationale": {Type: genai.TypeString},
		},
		Required: []string{"id", "score"},
	},
}

// Assistant implements the compliance features on top of an Oracle. A nil
// oracle yields FailureUnconfigured for every feature.
type Assistant struct {
	oracle  Oracle
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// NewAssistant creates an assistant. oracle may be nil.
func NewAssistant(oracle Oracle, logger *telemetry.Logger, metrics *telemetry.Metrics) *Assistant {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &Assistant{
		oracle:  oracle,
		logger:  logger.NewComponentLogger("ai"),
		metrics: metrics,
	}
}

// Configured reports whether an oracle is available.
func (a *Assistant) Configured() bool {
	return a.oracle != nil
}

func (a *Assistant) text(ctx context.Context, feature, prompt string) Result[string] {
	if a.oracle == nil {
		a.metrics.RecordAICall(feature, string(FailureUnconfigured), 0)
		return fail[string](FailureUnconfigured, ErrUnconfigured)
	}

	timer := telemetry.NewTimer()
	out, err := a.oracle.Generate(ctx, Request{Feature: feature, Prompt: prompt})
	switch {
	case err != nil:
		a.logger.WithField("feature", feature).WithError(err).Warn("ai request failed")
		a.metrics.RecordAICall(feature, string(FailureUpstream), timer.Duration())
		return fail[string](FailureUpstream, err)
	case strings.TrimSpace(out) == "":
		a.metrics.RecordAICall(feature, string(FailureEmpty), timer.Duration())
		return fail[string](FailureEmpty, nil)
	}

	a.metrics.RecordAICall(feature, "ok", timer.Duration())
	return Result[string]{Value: strings.TrimSpace(out)}
}

// ComplianceReport drafts an executive summary for an audit report.
func (a *Assistant) ComplianceReport(ctx context.Context, framework, company, notes string) Result[string] {
	prompt := fmt.Sprintf(`You are an expert compliance officer.
Write a professional executive summary for the %s compliance audit report of %q.
Context: %q
Sections: Executive Summary, Key Findings, Critical Gaps, Recommendations.
Respond in Markdown.`, framework, company, notes)
	return a.text(ctx, FeatureReport, prompt)
}

// Chat answers a free-form compliance question.
func (a *Assistant) Chat(ctx context.Context, message string) Result[string] {
	return a.text(ctx, FeatureChat, "You are a compliance assistant. User: "+message)
}

// Remediation proposes technical remediation steps for a risk.
func (a *Assistant) Remediation(ctx context.Context, risk string) Result[string] {
	return a.text(ctx, FeatureRemediation, fmt.Sprintf("Provide technical remediation steps for the risk %q. Respond in Markdown.", risk))
}

// Policy drafts a policy document.
func (a *Assistant) Policy(ctx context.Context, policyType, company, tone string) Result[string] {
	return a.text(ctx, FeaturePolicy, fmt.Sprintf("Write a %s %s policy for %s. Respond in Markdown.", tone, policyType, company))
}

// ContractAnalysis reviews contract text for privacy and security risks.
// Only the first 2000 characters are sent.
func (a *Assistant) ContractAnalysis(ctx context.Context, contract string) Result[string] {
	if r := []rune(contract); len(r) > maxContractChars {
		contract = string(r[:maxContractChars]) + "..."
	}
	return a.text(ctx, FeatureContract, fmt.Sprintf("Analyze this contract for GDPR and security risks: %q", contract))
}

// GapAnalysis compares the frameworks in place with a target framework.
func (a *Assistant) GapAnalysis(ctx context.Context, current []string, target string) Result[string] {
	return a.text(ctx, FeatureGap, fmt.Sprintf("Gap analysis: current=%s, target=%s.", strings.Join(current, ","), target))
}

// ClassifyEvidence maps an evidence file name to a control name.
func (a *Assistant) ClassifyEvidence(ctx context.Context, filename string) Result[string] {
	return a.text(ctx, FeatureEvidence, fmt.Sprintf("Classify the compliance evidence file %q. Return the control name only.", filename))
}

// RFPResponse answers a security questionnaire item using the facts in
// background.
func (a *Assistant) RFPResponse(ctx context.Context, question, background string) Result[string] {
	return a.text(ctx, FeatureRFP, fmt.Sprintf("Answer the RFP question %q given this context: %q", question, background))
}

// PhishingSimulation drafts a training phishing email.
func (a *Assistant) PhishingSimulation(ctx context.Context, topic, department string) Result[string] {
	return a.text(ctx, FeaturePhishing, fmt.Sprintf("Write a phishing simulation email for the %s department about %s.", department, topic))
}

// VendorRisk scores a third-party vendor.
func (a *Assistant) VendorRisk(ctx context.Context, vendor, service, data string) Result[string] {
	return a.text(ctx, FeatureVendor, fmt.Sprintf("Risk score the vendor %s providing %s with access to %s.", vendor, service, data))
}

// DataMap drafts a GDPR record of processing activities for a process.
func (a *Assistant) DataMap(ctx context.Context, process string) Result[string] {
	return a.text(ctx, FeatureDataMap, fmt.Sprintf("Draft a GDPR record of processing activities for: %s.", process))
}

// BCP drafts a business continuity plan for a scenario.
func (a *Assistant) BCP(ctx context.Context, scenario string) Result[string] {
	return a.text(ctx, FeatureBCP, fmt.Sprintf("Draft a business continuity plan for: %s.", scenario))
}

type riskSummary struct {
	ID          string          `json:"id"`
	Description string          `json:"desc"`
	Severity    stores.Severity `json:"sev"`
}

// PrioritizeRisks asks the oracle to score risks from 0 to 100. Scores are
// clamped to that range and scores for unknown ids are dropped.
func (a *Assistant) PrioritizeRisks(ctx context.Context, risks []stores.Risk) Result[[]RiskScore] {
	if a.oracle == nil {
		a.metrics.RecordAICall(FeaturePrioritize, string(FailureUnconfigured), 0)
		return fail[[]RiskScore](FailureUnconfigured, ErrUnconfigured)
	}
	if len(risks) == 0 {
		return Result[[]RiskScore]{Value: []RiskScore{}}
	}

	known := make(map[string]bool, len(risks))
	summary := make([]riskSummary, 0, len(risks))
	for _, r := range risks {
		known[r.ID] = true
		summary = append(summary, riskSummary{ID: r.ID, Description: r.Description, Severity: r.Severity})
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fail[[]RiskScore](FailureMalformed, err)
	}

	timer := telemetry.NewTimer()
	out, err := a.oracle.Generate(ctx, Request{
		Feature: FeaturePrioritize,
		Prompt:  "Score these compliance risks from 0 (negligible) to 100 (critical): " + string(payload),
		Schema:  riskScoreSchema,
	})
	if err != nil {
		a.logger.WithField("feature", FeaturePrioritize).WithError(err).Warn("ai request failed")
		a.metrics.RecordAICall(FeaturePrioritize, string(FailureUpstream), timer.Duration())
		return fail[[]RiskScore](FailureUpstream, err)
	}
	if strings.TrimSpace(out) == "" {
		a.metrics.RecordAICall(FeaturePrioritize, string(FailureEmpty), timer.Duration())
		return fail[[]RiskScore](FailureEmpty, nil)
	}

	var scores []RiskScore
	if err := json.Unmarshal([]byte(out), &scores); err != nil {
		a.metrics.RecordAICall(FeaturePrioritize, string(FailureMalformed), timer.Duration())
		return fail[[]RiskScore](FailureMalformed, err)
	}

	kept := make([]RiskScore, 0, len(scores))
	for _, s := range scores {
		if !known[s.ID] {
			continue
		}
		s.Score = min(max(s.Score, 0), 100)
		kept = append(kept, s)
	}

	a.metrics.RecordAICall(FeaturePrioritize, "ok", timer.Duration())
	return Result[[]RiskScore]{Value: kept}
}
