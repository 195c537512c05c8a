package stores

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadBaseline(t *testing.T) {
	b, err := LoadBaseline()
	if err != nil {
		t.Fatalf("LoadBaseline failed: %v", err)
	}
	if b.Organization.ID != "org1" || b.Organization.Plan != PlanPro {
		t.Errorf("unexpected organization: %+v", b.Organization)
	}
	if len(b.Users) != 3 || len(b.Risks) != 3 || len(b.Frameworks) != 2 ||
		len(b.AuditLogs) != 4 || len(b.Integrations) != 5 {
		t.Errorf("unexpected baseline sizes: %d users, %d risks, %d frameworks, %d logs, %d integrations",
			len(b.Users), len(b.Risks), len(b.Frameworks), len(b.AuditLogs), len(b.Integrations))
	}
	for _, u := range b.Users {
		if err := Validate(u); err != nil {
			t.Errorf("baseline user invalid: %v", err)
		}
	}
	for _, f := range b.Frameworks {
		if err := Validate(f); err != nil {
			t.Errorf("baseline framework invalid: %v", err)
		}
	}
}

func TestSeedWritesAllCollections(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	seeder := NewSeeder(store)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seeder.now = func() time.Time { return now }

	seeded, err := seeder.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if !seeded {
		t.Fatal("expected first Seed to write the baseline")
	}

	users, _ := GetTable[User](ctx, store, KeyUsers)
	if len(users) != 3 || users[0].Email != "sarah@complyeasy.ai" {
		t.Errorf("unexpected users: %+v", users)
	}

	risks, _ := GetTable[Risk](ctx, store, KeyRisks)
	if len(risks) != 3 {
		t.Fatalf("expected 3 risks, got %d", len(risks))
	}
	for _, r := range risks {
		if r.Status != RiskStatusOpen {
			t.Errorf("risk %s: expected default status Open, got %q", r.ID, r.Status)
		}
	}
	if want := now.Add(-2 * time.Hour); !risks[0].DetectedAt.Equal(want) {
		t.Errorf("expected r1 detected at %v, got %v", want, risks[0].DetectedAt)
	}

	orgs, _ := GetTable[Organization](ctx, store, KeyOrganizations)
	if len(orgs) != 1 {
		t.Errorf("expected exactly one organization, got %d", len(orgs))
	}

	integrations, _ := GetTable[Integration](ctx, store, KeyIntegrations)
	var jira *Integration
	for i := range integrations {
		if integrations[i].Name == "Jira" {
			jira = &integrations[i]
		}
	}
	if jira == nil || jira.Connected || jira.LastSync != nil {
		t.Errorf("expected disconnected Jira without last sync, got %+v", jira)
	}

	logs, _ := GetTable[AuditLogEntry](ctx, store, KeyAuditLogs)
	if len(logs) != 4 || logs[0].ID != "l1" {
		t.Errorf("expected 4 logs starting with l1, got %+v", logs)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	seeder := NewSeeder(store)
	if _, err := seeder.Seed(ctx); err != nil {
		t.Fatalf("first Seed failed: %v", err)
	}

	// Mutate after seeding; a second Seed must not restore the baseline
	if err := Mutate(ctx, store, KeyRisks, func(risks []Risk) ([]Risk, error) {
		return risks[:1], nil
	}); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	snapshot := make(map[string]string)
	for _, key := range []string{KeyUsers, KeyOrganizations, KeyRisks, KeyFrameworks, KeyAuditLogs, KeyIntegrations} {
		raw, _, _ := store.GetRaw(ctx, key)
		snapshot[key] = raw
	}

	seeded, err := seeder.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	if seeded {
		t.Error("second Seed should be a no-op")
	}

	after := make(map[string]string)
	for key := range snapshot {
		raw, _, _ := store.GetRaw(ctx, key)
		after[key] = raw
	}
	if diff := cmp.Diff(snapshot, after); diff != "" {
		t.Errorf("second Seed changed data (-before +after):\n%s", diff)
	}
}

func TestSeedSkipsWhenUsersPresent(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := SaveTable(ctx, store, KeyUsers, []User{}); err != nil {
		t.Fatalf("SaveTable failed: %v", err)
	}

	seeded, err := NewSeeder(store).Seed(ctx)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if seeded {
		t.Error("Seed should skip when the users collection exists, even if empty")
	}
	if ok, _ := store.Has(ctx, KeyRisks); ok {
		t.Error("risks should not be written")
	}
}
