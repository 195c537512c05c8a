// Package api is the service facade of complyeasy.
//
// Callers reach persisted data only through a Facade. Each operation runs
// the same pipeline:
//
//	authorize (access.Engine) -> simulated latency -> one repository call -> audit append
//
// The acting user travels in the context:
//
//	ctx, _, err := facade.Auth.Resume(ctx)
//	risks, err := facade.Risks.List(ctx)
//
// Errors are *Error values whose kind can be matched with errors.Is against
// ErrNotFound, ErrForbidden and the other sentinels. A mutation whose audit
// entry could not be written returns its result together with an error
// matching ErrAuditNotRecorded.
package api
