package api

import (
	"context"
	"time"
)

// Operation names used for latency, metrics and spans. Guarded operations
// reuse the names of the access package.
const (
	opLogin       = "auth.login"
	opRegister    = "auth.register"
	opRequestLink = "auth.request_link"
	opVerifyLink  = "auth.verify_link"
	opResume      = "auth.resume"
	opLogout      = "auth.logout"
)

// DefaultDelays is the simulated round trip of each operation. Billing is
// the slowest to model external payment confirmation.
var DefaultDelays = map[string]time.Duration{
	opLogin:    800 * time.Millisecond,
	opRegister: 800 * time.Millisecond,

	opRequestLink: 800 * time.Millisecond,

	"risks.list":   300 * time.Millisecond,
	"risks.update": 400 * time.Millisecond,
	"risks.create": 400 * time.Millisecond,
	"risks.assign": 400 * time.Millisecond,
	"risks.scan":   400 * time.Millisecond,

	"frameworks.list":   300 * time.Millisecond,
	"frameworks.create": 500 * time.Millisecond,

	"audit.list": 200 * time.Millisecond,
	"audit.log":  0,

	"billing.upgrade": 1500 * time.Millisecond,

	"team.list":        300 * time.Millisecond,
	"team.invite":      800 * time.Millisecond,
	"team.update_role": 400 * time.Millisecond,
	"team.remove":      400 * time.Millisecond,
}

// Latency inserts the simulated delay of an operation.
type Latency struct {
	scale  float64
	delays map[string]time.Duration
}

// NewLatency creates a latency simulator. Delays are multiplied by scale; a
// scale of zero disables them. overrides replace individual defaults.
func NewLatency(scale float64, overrides map[string]time.Duration) *Latency {
	delays := make(map[string]time.Duration, len(DefaultDelays)+len(overrides))
	for op, d := range DefaultDelays {
		delays[op] = d
	}
	for op, d := range overrides {
		delays[op] = d
	}
	if scale < 0 {
		scale = 0
	}
	return &Latency{scale: scale, delays: delays}
}

// Delay returns the scaled delay of op.
func (l *Latency) Delay(op string) time.Duration {
	if l == nil {
		return 0
	}
	return time.Duration(float64(l.delays[op]) * l.scale)
}

// Wait blocks for the delay of op. It returns the context error if ctx is
// done first, in which case the caller must not touch storage.
func (l *Latency) Wait(ctx context.Context, op string) error {
	d := l.Delay(op)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
