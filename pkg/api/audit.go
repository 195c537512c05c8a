package api

import (
	"context"
	"strings"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

// AuditService exposes the audit trail.
type AuditService struct {
	c *core
}

// List returns the audit trail, newest first.
func (s *AuditService) List(ctx context.Context) (_ []stores.AuditLogEntry, err error) {
	cl, err := s.c.start(ctx, string(access.OpAuditList), access.OpAuditList)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	return s.c.repos.AuditLogs.GetAll(cl.ctx())
}

// Log records action performed by user. An empty user falls back to the
// signed-in actor.
func (s *AuditService) Log(ctx context.Context, action, user string) (_ stores.AuditLogEntry, err error) {
	cl, err := s.c.start(ctx, string(access.OpAuditLog), access.OpAuditLog)
	if err != nil {
		return stores.AuditLogEntry{}, err
	}
	defer func() { err = cl.end(err) }()

	action = strings.TrimSpace(action)
	if action == "" {
		return stores.AuditLogEntry{}, newError(KindInvalid, cl.op, "action is required", nil)
	}
	if user = strings.TrimSpace(user); user == "" {
		user = cl.actorName()
	}
	return s.c.auditor.Record(cl.ctx(), cl.op, action, user)
}
