package stores

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed/baseline.yaml
var baselineYAML []byte

// Baseline is the dataset written to an empty store.
type Baseline struct {
	Organization Organization          `yaml:"organization"`
	Users        []User                `yaml:"users"`
	Frameworks   []ComplianceFramework `yaml:"frameworks"`
	Risks        []baselineRisk        `yaml:"risks"`
	AuditLogs    []AuditLogEntry       `yaml:"auditLogs"`
	Integrations []baselineIntegration `yaml:"integrations"`
}

type baselineRisk struct {
	Risk `yaml:",inline"`
	Age  time.Duration `yaml:"age"`
}

type baselineIntegration struct {
	Integration `yaml:",inline"`
	SyncedAgo   *time.Duration `yaml:"syncedAgo"`
}

// LoadBaseline parses the embedded baseline dataset.
func LoadBaseline() (*Baseline, error) {
	var b Baseline
	if err := yaml.Unmarshal(baselineYAML, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline: %w", err)
	}
	return &b, nil
}

// Seeder writes the baseline dataset once.
type Seeder struct {
	store *RecordStore
	now   func() time.Time
}

// NewSeeder creates a seeder for store.
func NewSeeder(store *RecordStore) *Seeder {
	return &Seeder{store: store, now: time.Now}
}

// Seed writes every baseline collection when the users collection is absent
// and reports whether it did. The users collection is written last so an
// interrupted seed is retried on the next start.
func (s *Seeder) Seed(ctx context.Context) (bool, error) {
	seeded, err := s.store.Has(ctx, KeyUsers)
	if err != nil {
		return false, fmt.Errorf("failed to check seed marker: %w", err)
	}
	if seeded {
		return false, nil
	}

	b, err := LoadBaseline()
	if err != nil {
		return false, err
	}

	now := s.now().UTC()
	orgID := b.Organization.ID

	risks := make([]Risk, 0, len(b.Risks))
	for _, br := range b.Risks {
		r := br.Risk
		r.DetectedAt = now.Add(-br.Age)
		if r.Status == "" {
			r.Status = RiskStatusOpen
		}
		if r.OrganizationID == "" {
			r.OrganizationID = orgID
		}
		risks = append(risks, r)
	}

	integrations := make([]Integration, 0, len(b.Integrations))
	for _, bi := range b.Integrations {
		in := bi.Integration
		if bi.SyncedAgo != nil {
			t := now.Add(-*bi.SyncedAgo)
			in.LastSync = &t
		}
		integrations = append(integrations, in)
	}

	users := make([]User, 0, len(b.Users))
	for _, u := range b.Users {
		if u.OrganizationID == "" {
			u.OrganizationID = orgID
		}
		users = append(users, u)
	}

	frameworks := make([]ComplianceFramework, 0, len(b.Frameworks))
	for _, f := range b.Frameworks {
		if f.OrganizationID == "" {
			f.OrganizationID = orgID
		}
		frameworks = append(frameworks, f)
	}

	logs := make([]AuditLogEntry, 0, len(b.AuditLogs))
	for _, l := range b.AuditLogs {
		if l.OrganizationID == "" {
			l.OrganizationID = orgID
		}
		logs = append(logs, l)
	}

	if err := SaveTable(ctx, s.store, KeyOrganizations, []Organization{b.Organization}); err != nil {
		return false, err
	}
	if err := SaveTable(ctx, s.store, KeyRisks, risks); err != nil {
		return false, err
	}
	if err := SaveTable(ctx, s.store, KeyFrameworks, frameworks); err != nil {
		return false, err
	}
	if err := SaveTable(ctx, s.store, KeyAuditLogs, logs); err != nil {
		return false, err
	}
	if err := SaveTable(ctx, s.store, KeyIntegrations, integrations); err != nil {
		return false, err
	}
	if err := SaveTable(ctx, s.store, KeyUsers, users); err != nil {
		return false, err
	}

	s.store.logger.Infof("seeded baseline dataset: %d users, %d risks, %d frameworks", len(users), len(risks), len(frameworks))
	return true, nil
}
