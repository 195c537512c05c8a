// Package access decides which facade operations a role may perform.
//
// The role capability table in Capabilities is the single source of truth.
// Engine loads it as OPA data and evaluates a small Rego policy against it,
// so deployments can replace the policy without touching Go code.
package access
