package stores

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

func setupTestStore(t *testing.T) *RecordStore {
	t.Helper()

	store := NewRecordStore(NewMemoryMedium())
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetTableAbsentIsEmpty(t *testing.T) {
	store := setupTestStore(t)

	risks, err := GetTable[Risk](context.Background(), store, KeyRisks)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	if risks == nil || len(risks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", risks)
	}
}

func TestSaveTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	detected := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	score := 87
	want := []Risk{
		{ID: "r1", Severity: SeverityHigh, Description: "a", Category: "Infrastructure", DetectedAt: detected, Status: RiskStatusOpen, AIPriorityScore: &score},
		{ID: "r2", Severity: SeverityLow, Description: "b", Category: "Personnel", DetectedAt: detected, Status: RiskStatusResolved},
	}

	if err := SaveTable(ctx, store, KeyRisks, want); err != nil {
		t.Fatalf("SaveTable failed: %v", err)
	}

	got, err := GetTable[Risk](ctx, store, KeyRisks)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 risks, got %d", len(got))
	}
	if got[0].ID != "r1" || got[1].ID != "r2" {
		t.Errorf("order not preserved: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].AIPriorityScore == nil || *got[0].AIPriorityScore != 87 {
		t.Errorf("expected score 87, got %v", got[0].AIPriorityScore)
	}
	if !got[1].DetectedAt.Equal(detected) {
		t.Errorf("expected detectedAt %v, got %v", detected, got[1].DetectedAt)
	}
}

func TestSaveTableEmptyWritesArray(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := SaveTable[User](ctx, store, KeyUsers, nil); err != nil {
		t.Fatalf("SaveTable failed: %v", err)
	}
	raw, ok, err := store.GetRaw(ctx, KeyUsers)
	if err != nil || !ok {
		t.Fatalf("expected stored value, ok=%v err=%v", ok, err)
	}
	if raw != "[]" {
		t.Errorf("expected [], got %q", raw)
	}
}

func TestGetTableCorruptDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: true, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	store := NewRecordStore(NewMemoryMedium(), WithMetrics(metrics))

	for _, raw := range []string{"{not json", `{"id":"r1"}`, "null"} {
		if err := store.SetRaw(ctx, KeyRisks, raw); err != nil {
			t.Fatalf("SetRaw failed: %v", err)
		}
		risks, err := GetTable[Risk](ctx, store, KeyRisks)
		if err != nil {
			t.Errorf("%q: expected no error, got %v", raw, err)
		}
		if len(risks) != 0 {
			t.Errorf("%q: expected empty, got %d records", raw, len(risks))
		}
	}
}

type failingMedium struct {
	*MemoryMedium
	err error
}

func (f *failingMedium) Get(context.Context, string) (string, bool, error) {
	return "", false, f.err
}

func (f *failingMedium) Set(context.Context, string, string) error {
	return f.err
}

func TestGetTableMediumFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	store := NewRecordStore(&failingMedium{MemoryMedium: NewMemoryMedium(), err: boom})

	if _, err := GetTable[User](context.Background(), store, KeyUsers); !errors.Is(err, boom) {
		t.Errorf("expected medium error, got %v", err)
	}
	if err := SaveTable(context.Background(), store, KeyUsers, []User{}); !errors.Is(err, boom) {
		t.Errorf("expected medium error, got %v", err)
	}
}

func TestMutateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := SaveTable(ctx, store, KeyUsers, []User{{ID: "u1", Name: "A", Email: "a@x.io", Role: RoleAdmin}}); err != nil {
		t.Fatalf("SaveTable failed: %v", err)
	}

	abort := errors.New("abort")
	err := Mutate(ctx, store, KeyUsers, func(users []User) ([]User, error) {
		return nil, abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("expected abort, got %v", err)
	}

	users, _ := GetTable[User](ctx, store, KeyUsers)
	if len(users) != 1 {
		t.Errorf("collection should be untouched, got %d users", len(users))
	}
}

func TestMutateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := Mutate(ctx, store, KeyAuditLogs, func(logs []AuditLogEntry) ([]AuditLogEntry, error) {
				entry := AuditLogEntry{ID: fmt.Sprintf("log_%d", i), Action: "x", User: "y", Hash: "0x0"}
				return append([]AuditLogEntry{entry}, logs...), nil
			})
			if err != nil {
				t.Errorf("Mutate failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	logs, err := GetTable[AuditLogEntry](ctx, store, KeyAuditLogs)
	if err != nil {
		t.Fatalf("GetTable failed: %v", err)
	}
	if len(logs) != writers {
		t.Errorf("expected %d entries, got %d (lost updates)", writers, len(logs))
	}
}

func TestHasAndRemove(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if ok, _ := store.Has(ctx, KeySession); ok {
		t.Fatal("session should be absent")
	}
	if err := store.SetRaw(ctx, KeySession, `{}`); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}
	if ok, _ := store.Has(ctx, KeySession); !ok {
		t.Fatal("session should be present")
	}
	if err := store.Remove(ctx, KeySession); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok, _ := store.Has(ctx, KeySession); ok {
		t.Error("session should be removed")
	}
	if err := store.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
