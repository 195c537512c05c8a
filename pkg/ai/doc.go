// Package ai wraps the generative model used for compliance assistance.
//
// Every feature returns a Result. Failures never surface as Go errors to the
// caller's control flow: a Result carries a FailureKind that says whether the
// oracle was unconfigured, failed upstream, answered empty or answered with
// malformed JSON.
package ai
