package api

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/ai"
	"github.com/complyeasy/complyeasy/pkg/repository"
	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// Facade is the only surface callers use to reach persisted data. Every
// operation authorizes the actor stored in the context (see WithActor),
// waits out its simulated latency and then makes exactly one repository
// call. Mutations append an audit entry.
//
// A Facade is safe for concurrent use.
type Facade struct {
	Auth         *AuthService
	Risks        *RiskService
	Frameworks   *FrameworkService
	Audit        *AuditService
	Billing      *BillingService
	Team         *TeamService
	Integrations *IntegrationService
	AI           *AIService

	core *core
}

// AuthConfig configures magic-link sign-in and sessions.
type AuthConfig struct {
	// Secret signs tokens. An empty secret is replaced by a random one, so
	// sessions do not survive a restart.
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	LinkTTL    time.Duration
}

// DefaultAuthConfig returns the default session settings.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Issuer:     "complyeasy",
		SessionTTL: 7 * 24 * time.Hour,
		LinkTTL:    15 * time.Minute,
	}
}

// Option configures a Facade.
type Option func(*core)

// WithTelemetry sets the telemetry used for logs, spans, metrics and events.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(c *core) {
		c.tel = tel
	}
}

// WithLatency sets the latency simulator. The default has no delay.
func WithLatency(l *Latency) Option {
	return func(c *core) {
		c.latency = l
	}
}

// WithAuthConfig sets the session configuration.
func WithAuthConfig(cfg AuthConfig) Option {
	return func(c *core) {
		c.auth = cfg
	}
}

// WithAssistant sets the AI assistant. Without one every AI feature reports
// an unconfigured failure.
func WithAssistant(a *ai.Assistant) Option {
	return func(c *core) {
		c.assistant = a
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *core) {
		c.now = now
	}
}

type core struct {
	repos     *repository.Repositories
	access    *access.Engine
	tel       *telemetry.Telemetry
	latency   *Latency
	auditor   *AuditLogger
	assistant *ai.Assistant
	auth      AuthConfig
	secret    []byte
	now       func() time.Time
}

// New creates a facade over repos, authorizing calls with engine.
func New(repos *repository.Repositories, engine *access.Engine, opts ...Option) (*Facade, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if engine == nil {
		return nil, fmt.Errorf("access engine is required")
	}

	c := &core{
		repos:   repos,
		access:  engine,
		latency: NewLatency(0, nil),
		auth:    DefaultAuthConfig(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tel == nil {
		c.tel = telemetry.Nop()
	}
	if c.assistant == nil {
		c.assistant = ai.NewAssistant(nil, c.tel.Logger, c.tel.Metrics)
	}

	if c.auth.Secret != "" {
		c.secret = []byte(c.auth.Secret)
	} else {
		c.secret = make([]byte, 32)
		if _, err := rand.Read(c.secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		c.tel.Logger.Warn("no session secret configured, sessions will not survive a restart")
	}

	c.auditor = NewAuditLogger(repos.AuditLogs, c.tel)
	c.auditor.now = c.now

	return &Facade{
		Auth:         &AuthService{c: c},
		Risks:        &RiskService{c: c},
		Frameworks:   &FrameworkService{c: c},
		Audit:        &AuditService{c: c},
		Billing:      &BillingService{c: c},
		Team:         &TeamService{c: c},
		Integrations: &IntegrationService{c: c},
		AI:           &AIService{c: c},
		core:         c,
	}, nil
}

// call tracks one facade operation from authorization to completion.
type call struct {
	c     *core
	op    string
	ic    *telemetry.InstrumentedContext
	actor stores.User
}

func (cl *call) ctx() context.Context {
	return cl.ic.Ctx
}

// start instruments op, authorizes the actor for guard and waits out the
// simulated latency. An empty guard marks a public operation. On failure
// the call is already finished.
func (c *core) start(ctx context.Context, op string, guard access.Operation) (*call, error) {
	actor, signedIn := ActorFrom(ctx)

	ctx = c.tel.WithContext(ctx)
	ic := telemetry.StartOperation(ctx, op)
	cl := &call{c: c, op: op, ic: ic, actor: actor}

	if signedIn {
		ic.Span.SetAttributes(telemetry.AttrActor.String(actor.Email), telemetry.AttrRole.String(string(actor.Role)))
	}

	if guard != "" {
		if !signedIn {
			return nil, cl.end(newError(KindUnauthenticated, op, "not signed in", nil))
		}
		if err := c.access.Authorize(cl.ctx(), actor.Role, guard); err != nil {
			if errors.Is(err, access.ErrDenied) {
				return nil, cl.end(newError(KindForbidden, op, "operation not permitted", err))
			}
			return nil, cl.end(newError(KindInternal, op, "authorization failed", err))
		}
	}

	if err := c.latency.Wait(cl.ctx(), op); err != nil {
		return nil, cl.end(newError(KindCanceled, op, "canceled", err))
	}
	return cl, nil
}

// end classifies err, records it and finishes the span.
func (cl *call) end(err error) error {
	err = classify(cl.op, err)
	if err != nil {
		kind := KindOf(err)
		cl.c.tel.Metrics.RecordError(string(kind))
		cl.ic.Span.SetAttributes(telemetry.AttrErrorKind.String(string(kind)))
		if kind == KindStorage || kind == KindInternal {
			cl.ic.Logger.WithError(err).Error("operation failed")
		} else {
			cl.ic.Logger.WithError(err).Debug("operation rejected")
		}
	}
	cl.ic.End(err)
	return err
}

// actorName is the name recorded in audit entries.
func (cl *call) actorName() string {
	if cl.actor.Name != "" {
		return cl.actor.Name
	}
	return "System"
}

// audit records action on behalf of the actor.
func (cl *call) audit(action string) error {
	_, err := cl.c.auditor.Record(cl.ctx(), cl.op, action, cl.actorName())
	return err
}

// publish raises a domain event. Delivery failures are logged only.
func (cl *call) publish(eventType, entityID, message string) {
	if err := cl.c.tel.Events.PublishMutation(eventType, cl.actor.Email, entityID, message); err != nil {
		cl.ic.Logger.WithError(err).Warn("event not published")
	}
}
