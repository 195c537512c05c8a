package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"

	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// ErrDenied is returned by Authorize when the role lacks the operation.
var ErrDenied = errors.New("operation not permitted for role")

const allowQuery = "data.complyeasy.access.allow"

// DefaultPolicy allows an operation when it is listed for the input role in
// the capability data.
const DefaultPolicy = `package complyeasy.access

import rego.v1

default allow := false

allow if {
	some op in data.complyeasy.capabilities[input.role]
	op == input.operation
}
`

// Engine evaluates the access policy. The query is prepared once; Allowed is
// safe for concurrent use.
type Engine struct {
	query  rego.PreparedEvalQuery
	logger *telemetry.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	policy string
	logger *telemetry.Logger
}

// WithPolicy replaces the default Rego policy. The module must define
// data.complyeasy.access.allow.
func WithPolicy(module string) EngineOption {
	return func(o *engineOptions) {
		o.policy = module
	}
}

// WithEngineLogger sets the logger for denied decisions.
func WithEngineLogger(l *telemetry.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// NewEngine compiles the policy against the capability table.
func NewEngine(ctx context.Context, opts ...EngineOption) (*Engine, error) {
	o := engineOptions{policy: DefaultPolicy, logger: telemetry.NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	r := rego.New(
		rego.Module("access.rego", o.policy),
		rego.Store(inmem.NewFromObject(capabilityData())),
		rego.Query(allowQuery),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare access policy: %w", err)
	}

	return &Engine{
		query:  query,
		logger: o.logger.NewComponentLogger("access"),
	}, nil
}

// Allowed evaluates the policy for role and op.
func (e *Engine) Allowed(ctx context.Context, role stores.Role, op Operation) (bool, error) {
	input := map[string]interface{}{
		"role":      string(role),
		"operation": string(op),
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("access policy evaluation error: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy returned %T, want bool", results[0].Expressions[0].Value)
	}
	return allowed, nil
}

// Authorize returns ErrDenied unless role may perform op.
func (e *Engine) Authorize(ctx context.Context, role stores.Role, op Operation) error {
	allowed, err := e.Allowed(ctx, role, op)
	if err != nil {
		return err
	}
	if !allowed {
		e.logger.WithFields(map[string]interface{}{
			"role":      string(role),
			"operation": string(op),
		}).Debug("access denied")
		return fmt.Errorf("%w: %s cannot %s", ErrDenied, role, op)
	}
	return nil
}
