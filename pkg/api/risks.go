package api

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/ai"
	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// Values of the risk raised by a simulated scan.
const (
	scanDescription = "Publicly accessible elasticsearch cluster detected."
	scanCategory    = "Infrastructure"
)

// RiskSort selects the ordering of a risk query.
type RiskSort string

const (
	SortNone       RiskSort = ""
	SortSeverity   RiskSort = "severity"
	SortDetectedAt RiskSort = "detectedAt"
	SortAIScore    RiskSort = "aiScore"
)

// RiskQuery filters and orders risks. Zero fields match everything.
type RiskQuery struct {
	Severity   stores.Severity
	Status     stores.RiskStatus
	AssignedTo string
	Sort       RiskSort
	Ascending  bool
}

func (q RiskQuery) match(r stores.Risk) bool {
	if q.Severity != "" && r.Severity != q.Severity {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.AssignedTo != "" && r.AssignedTo != q.AssignedTo {
		return false
	}
	return true
}

func (q RiskQuery) apply(risks []stores.Risk) []stores.Risk {
	out := make([]stores.Risk, 0, len(risks))
	for _, r := range risks {
		if q.match(r) {
			out = append(out, r)
		}
	}

	var cmp func(a, b stores.Risk) int
	switch q.Sort {
	case SortSeverity:
		cmp = func(a, b stores.Risk) int { return a.Severity.Rank() - b.Severity.Rank() }
	case SortDetectedAt:
		cmp = func(a, b stores.Risk) int { return a.DetectedAt.Compare(b.DetectedAt) }
	case SortAIScore:
		cmp = func(a, b stores.Risk) int { return aiScore(a) - aiScore(b) }
	default:
		return out
	}
	if !q.Ascending {
		asc := cmp
		cmp = func(a, b stores.Risk) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

func aiScore(r stores.Risk) int {
	if r.AIPriorityScore == nil {
		return 0
	}
	return *r.AIPriorityScore
}

// RiskAssignment changes the workflow fields of a risk. Nil fields are left
// unchanged; an empty Assignee clears the assignment.
type RiskAssignment struct {
	ID             string
	Assignee       *string
	Status         stores.RiskStatus
	MitigationPlan *string
}

// PrioritizeOutcome reports an AI prioritization run. When Failure is set no
// risk was changed.
type PrioritizeOutcome struct {
	Risks   []stores.Risk
	Failure ai.FailureKind
	Message string
}

// RemediationOutcome reports an AI remediation request.
type RemediationOutcome struct {
	Risk    stores.Risk
	Plan    string
	Failure ai.FailureKind
	Message string
}

// RiskService manages detected risks.
type RiskService struct {
	c *core
}

// List returns every risk, newest first.
func (s *RiskService) List(ctx context.Context) (_ []stores.Risk, err error) {
	cl, err := s.c.start(ctx, string(access.OpRisksList), access.OpRisksList)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	return s.c.repos.Risks.GetAll(cl.ctx())
}

// Query returns the risks matching q in the requested order.
func (s *RiskService) Query(ctx context.Context, q RiskQuery) (_ []stores.Risk, err error) {
	cl, err := s.c.start(ctx, string(access.OpRisksList), access.OpRisksList)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	risks, err := s.c.repos.Risks.GetAll(cl.ctx())
	if err != nil {
		return nil, err
	}
	return q.apply(risks), nil
}

// MyTasks returns the risks assigned to the signed-in user, most severe
// first unless q says otherwise.
func (s *RiskService) MyTasks(ctx context.Context, q RiskQuery) ([]stores.Risk, error) {
	actor, ok := ActorFrom(ctx)
	if !ok {
		return nil, newError(KindUnauthenticated, string(access.OpRisksList), "not signed in", nil)
	}
	q.AssignedTo = actor.Name
	if q.Sort == SortNone {
		q.Sort = SortSeverity
	}
	return s.Query(ctx, q)
}

// Update replaces the risk with the same id, or inserts it at the front.
func (s *RiskService) Update(ctx context.Context, risk stores.Risk) (_ stores.Risk, err error) {
	cl, err := s.c.start(ctx, string(access.OpRisksUpdate), access.OpRisksUpdate)
	if err != nil {
		return stores.Risk{}, err
	}
	defer func() { err = cl.end(err) }()

	if err := s.c.repos.Risks.Update(cl.ctx(), risk); err != nil {
		return stores.Risk{}, err
	}

	cl.publish(telemetry.EventTypeRiskUpdated, risk.ID, fmt.Sprintf("risk %s updated", risk.ID))
	return risk, cl.audit(fmt.Sprintf("Risk %s updated to %s", risk.ID, risk.Status))
}

// Create stores a new risk at the front of the list. Like Update it is an
// upsert: an existing id is overwritten rather than rejected. A missing id,
// status or detection time is filled in.
func (s *RiskService) Create(ctx context.Context, risk stores.Risk) (_ stores.Risk, err error) {
	cl, err := s.c.start(ctx, string(access.OpRisksCreate), access.OpRisksCreate)
	if err != nil {
		return stores.Risk{}, err
	}
	defer func() { err = cl.end(err) }()

	risk = s.c.prepareRisk(cl, risk)
	if err := s.c.repos.Risks.Update(cl.ctx(), risk); err != nil {
		return stores.Risk{}, err
	}

	cl.publish(telemetry.EventTypeRiskDetected, risk.ID, risk.Description)
	return risk, cl.audit(fmt.Sprintf("Risk %s created", risk.ID))
}

// Scan simulates an infrastructure scan that always finds one exposed
// cluster and records it as a new High risk.
func (s *RiskService) Scan(ctx context.Context) (_ stores.Risk, err error) {
	cl, err := s.c.start(ctx, string(access.OpRisksScan), access.OpRisksScan)
	if err != nil {
		return stores.Risk{}, err
	}
	defer func() { err = cl.end(err) }()

	now := s.c.now().UTC()
	risk := s.c.prepareRisk(cl, stores.Risk{
		ID:          fmt.Sprintf("r-new-%d", now.UnixMilli()),
		Severity:    stores.SeverityHigh,
		Description: scanDescription,
		Category:    scanCategory,
		Status:      stores.RiskStatusOpen,
		DetectedAt:  now,
	})
	if err := s.c.repos.Risks.Update(cl.ctx(), risk); err != nil {
		return stores.Risk{}, err
	}

	cl.publish(telemetry.EventTypeRiskDetected, risk.ID, risk.Description)
	return risk, cl.audit(fmt.Sprintf("Security scan detected risk %s", risk.ID))
}

// Assign updates the assignee, status or mitigation plan of a risk. The
// assignee's avatar is copied from the team when a member has that name.
func (s *RiskService) Assign(ctx context.Context, a RiskAssignment) (_ stores.Risk, err error) {
	cl, err := s.c.start(ctx, string(access.OpRisksAssign), access.OpRisksAssign)
	if err != nil {
		return stores.Risk{}, err
	}
	defer func() { err = cl.end(err) }()

	if a.Status != "" && !a.Status.Valid() {
		return stores.Risk{}, newError(KindInvalid, cl.op, fmt.Sprintf("unknown status %q", a.Status), nil)
	}

	var avatar string
	if a.Assignee != nil && *a.Assignee != "" {
		users, err := s.c.repos.Users.GetAll(cl.ctx())
		if err != nil {
			return stores.Risk{}, err
		}
		for _, u := range users {
			if u.Name == *a.Assignee {
				avatar = u.Avatar
				break
			}
		}
	}

	risk, err := s.c.repos.Risks.Modify(cl.ctx(), a.ID, func(r *stores.Risk) error {
		if a.Assignee != nil {
			r.AssignedTo = strings.TrimSpace(*a.Assignee)
			r.AssignedAvatar = avatar
		}
		if a.Status != "" {
			r.Status = a.Status
		}
		if a.MitigationPlan != nil {
			r.MitigationPlan = *a.MitigationPlan
		}
		return nil
	})
	if err != nil {
		return stores.Risk{}, err
	}

	action := fmt.Sprintf("Task %s status updated to %s", risk.ID, risk.Status)
	if a.Assignee != nil && risk.AssignedTo != "" {
		action = fmt.Sprintf("Task %s assigned to %s (%s)", risk.ID, risk.AssignedTo, risk.Status)
	}
	cl.publish(telemetry.EventTypeRiskUpdated, risk.ID, action)
	return risk, cl.audit(action)
}

// Prioritize asks the AI assistant to score every risk and persists the
// scores. An AI failure is reported in the outcome, not as an error.
func (s *RiskService) Prioritize(ctx context.Context) (_ PrioritizeOutcome, err error) {
	cl, err := s.c.start(ctx, string(access.OpRisksPrioritize), access.OpRisksPrioritize)
	if err != nil {
		return PrioritizeOutcome{}, err
	}
	defer func() { err = cl.end(err) }()

	risks, err := s.c.repos.Risks.GetAll(cl.ctx())
	if err != nil {
		return PrioritizeOutcome{}, err
	}

	res := s.c.assistant.PrioritizeRisks(cl.ctx(), risks)
	if !res.OK() {
		return PrioritizeOutcome{Risks: risks, Failure: res.Failure, Message: res.Message()}, nil
	}
	if len(res.Value) == 0 {
		return PrioritizeOutcome{Risks: risks}, nil
	}

	scores := make(map[string]ai.RiskScore, len(res.Value))
	for _, sc := range res.Value {
		scores[sc.ID] = sc
	}
	changed := make([]stores.Risk, 0, len(scores))
	for i := range risks {
		sc, ok := scores[risks[i].ID]
		if !ok {
			continue
		}
		score := sc.Score
		risks[i].AIPriorityScore = &score
		risks[i].AIRationale = sc.Rationale
		changed = append(changed, risks[i])
	}
	if err := s.c.repos.Risks.UpdateMany(cl.ctx(), changed); err != nil {
		return PrioritizeOutcome{}, err
	}

	sorted := RiskQuery{Sort: SortAIScore}.apply(risks)
	return PrioritizeOutcome{Risks: sorted}, cl.audit(fmt.Sprintf("AI prioritized %d risks", len(changed)))
}

// Remediate returns the mitigation plan of a risk, generating and storing
// one with the AI assistant when the risk has none.
func (s *RiskService) Remediate(ctx context.Context, id string) (_ RemediationOutcome, err error) {
	cl, err := s.c.start(ctx, string(access.OpRisksRemediate), access.OpRisksRemediate)
	if err != nil {
		return RemediationOutcome{}, err
	}
	defer func() { err = cl.end(err) }()

	risk, found, err := s.c.repos.Risks.Get(cl.ctx(), id)
	if err != nil {
		return RemediationOutcome{}, err
	}
	if !found {
		return RemediationOutcome{}, newError(KindNotFound, cl.op, fmt.Sprintf("risk %s not found", id), nil)
	}
	if risk.MitigationPlan != "" {
		return RemediationOutcome{Risk: risk, Plan: risk.MitigationPlan}, nil
	}

	res := s.c.assistant.Remediation(cl.ctx(), risk.Description)
	if !res.OK() {
		return RemediationOutcome{Risk: risk, Failure: res.Failure, Message: res.Message()}, nil
	}

	risk, err = s.c.repos.Risks.Modify(cl.ctx(), id, func(r *stores.Risk) error {
		r.MitigationPlan = res.Value
		return nil
	})
	if err != nil {
		return RemediationOutcome{}, err
	}
	return RemediationOutcome{Risk: risk, Plan: risk.MitigationPlan},
		cl.audit(fmt.Sprintf("Remediation plan generated for risk %s", risk.ID))
}

func (c *core) prepareRisk(cl *call, risk stores.Risk) stores.Risk {
	if risk.ID == "" {
		risk.ID = "r_" + uuid.NewString()
	}
	if risk.Status == "" {
		risk.Status = stores.RiskStatusOpen
	}
	if risk.DetectedAt.IsZero() {
		risk.DetectedAt = c.now().UTC()
	}
	if risk.OrganizationID == "" {
		risk.OrganizationID = cl.actor.OrganizationID
	}
	return risk
}
