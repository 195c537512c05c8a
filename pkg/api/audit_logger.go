package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/complyeasy/complyeasy/pkg/repository"
	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// auditHashSize is the digest length in bytes; the hex form is 40 chars.
const auditHashSize = 20

// AuditLogger appends entries to the audit trail. The hash it derives is a
// display value and does not make the trail tamper evident.
type AuditLogger struct {
	repo    *repository.AuditLogRepository
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	events  *telemetry.EventPublisher
	now     func() time.Time
}

// NewAuditLogger creates an audit logger over repo. tel may be nil.
func NewAuditLogger(repo *repository.AuditLogRepository, tel *telemetry.Telemetry) *AuditLogger {
	if tel == nil {
		tel = telemetry.Nop()
	}
	return &AuditLogger{
		repo:    repo,
		logger:  tel.Logger.NewComponentLogger("audit"),
		metrics: tel.Metrics,
		events:  tel.Events,
		now:     time.Now,
	}
}

// Record appends an entry for action performed by user. A failure is
// logged, counted and returned as ErrAuditNotRecorded.
func (a *AuditLogger) Record(ctx context.Context, op, action, user string) (stores.AuditLogEntry, error) {
	entry, err := a.newEntry(action, user)
	if err == nil {
		if actor, ok := ActorFrom(ctx); ok {
			entry.OrganizationID = actor.OrganizationID
		}
		err = a.repo.Add(ctx, entry)
	}
	if err != nil {
		a.logger.WithOperation(op).WithActor(user).WithError(err).
			Errorf("audit entry %q not recorded", action)
		a.metrics.RecordAuditFailure(op)
		_ = a.events.PublishAuditFailed(user, action, err.Error())
		return stores.AuditLogEntry{}, newError(KindAudit, op, "audit entry not recorded", err)
	}

	a.metrics.RecordAuditEntry()
	return entry, nil
}

func (a *AuditLogger) newEntry(action, user string) (stores.AuditLogEntry, error) {
	now := a.now().UTC()

	hash, err := pseudoHash(action, user, now)
	if err != nil {
		return stores.AuditLogEntry{}, err
	}

	return stores.AuditLogEntry{
		ID:        "log_" + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Action:    action,
		User:      user,
		Timestamp: now,
		Hash:      hash,
		Verified:  true,
	}, nil
}

// pseudoHash digests the entry fields with a random nonce.
func pseudoHash(action, user string, ts time.Time) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	h, err := blake2b.New(auditHashSize, nil)
	if err != nil {
		return "", err
	}
	h.Write(nonce)
	h.Write([]byte(action))
	h.Write([]byte{0})
	h.Write([]byte(user))
	h.Write([]byte(ts.Format(time.RFC3339Nano)))

	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}
