package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyeasy/complyeasy/pkg/api"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

// syncBuffer is a bytes.Buffer safe for a command writing from another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// run executes complyctl with args against the workspace config at cfg.
func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand("test", "none", "now")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func newWorkspace(t *testing.T) string {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	cfg := filepath.Join(t.TempDir(), "complyeasy.yaml")
	_, err := run(t, cfg, "init", "--driver", "file", "--no-delay")
	require.NoError(t, err)
	return cfg
}

func TestWorkspaceFlow(t *testing.T) {
	cfg := newWorkspace(t)

	_, err := run(t, cfg, "risks", "list")
	require.Error(t, err, "commands need a session")

	out, err := run(t, cfg, "login", "mike@complyeasy.ai", "--json")
	require.NoError(t, err)
	var user stores.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "Mike Ross", user.Name)

	out, err = run(t, cfg, "risks", "list", "--severity", "Medium", "--json")
	require.NoError(t, err)
	var risks []stores.Risk
	require.NoError(t, json.Unmarshal([]byte(out), &risks))
	require.Len(t, risks, 2)
	for _, r := range risks {
		assert.Equal(t, stores.SeverityMedium, r.Severity)
	}

	_, err = run(t, cfg, "risks", "assign", "r1", "--to", "Mike Ross", "--status", "In Progress")
	require.NoError(t, err)

	out, err = run(t, cfg, "risks", "mine", "--json")
	require.NoError(t, err)
	risks = nil
	require.NoError(t, json.Unmarshal([]byte(out), &risks))
	require.Len(t, risks, 1)
	assert.Equal(t, "r1", risks[0].ID)
	assert.Equal(t, "MR", risks[0].AssignedAvatar)

	out, err = run(t, cfg, "audit", "list", "-n", "1", "--json")
	require.NoError(t, err)
	var logs []stores.AuditLogEntry
	require.NoError(t, json.Unmarshal([]byte(out), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "Task r1 assigned to Mike Ross (In Progress)", logs[0].Action)
	assert.Equal(t, "Mike Ross", logs[0].User)

	_, err = run(t, cfg, "billing", "upgrade", "Enterprise")
	assert.Error(t, err, "editors cannot change billing")

	_, err = run(t, cfg, "logout")
	require.NoError(t, err)
	_, err = run(t, cfg, "whoami")
	assert.Error(t, err)
}

func TestAICommandsWithoutKey(t *testing.T) {
	cfg := newWorkspace(t)
	_, err := run(t, cfg, "login", "jane@complyeasy.ai")
	require.NoError(t, err)

	_, err = run(t, cfg, "ai", "chat", "what", "is", "SOC", "2?")
	assert.ErrorContains(t, err, "not configured")
}

func TestInitIsIdempotent(t *testing.T) {
	cfg := newWorkspace(t)

	_, err := run(t, cfg, "login", "sarah@complyeasy.ai")
	require.NoError(t, err)
	_, err = run(t, cfg, "frameworks", "add", "HIPAA")
	require.NoError(t, err)

	out, err := run(t, cfg, "init", "--json")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, false, res["seeded"])

	out, err = run(t, cfg, "frameworks", "list", "--json")
	require.NoError(t, err)
	var frameworks []stores.ComplianceFramework
	require.NoError(t, json.Unmarshal([]byte(out), &frameworks))
	assert.Len(t, frameworks, 3, "existing data survives a second init")
}

func TestWatchPrintsNewAuditEntries(t *testing.T) {
	cfg := newWorkspace(t)
	_, err := run(t, cfg, "login", "mike@complyeasy.ai")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var out syncBuffer
	root := newRootCommand("test", "none", "now")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", cfg, "watch"})
	watchErr := make(chan error, 1)
	go func() { watchErr <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching")
	}, 5*time.Second, 20*time.Millisecond)

	// the watcher starts asynchronously, so keep writing until one lands
	require.Eventually(t, func() bool {
		if _, err := run(t, cfg, "audit", "log", "Access review completed"); err != nil {
			return false
		}
		return strings.Contains(out.String(), "Mike Ross: Access review completed")
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchNeedsAuditAccess(t *testing.T) {
	cfg := newWorkspace(t)

	_, err := run(t, cfg, "watch")
	require.Error(t, err, "watch needs a session")

	_, err = run(t, cfg, "login", "jane@complyeasy.ai")
	require.NoError(t, err)
	_, err = run(t, cfg, "watch")
	assert.ErrorIs(t, err, api.ErrForbidden)
}
