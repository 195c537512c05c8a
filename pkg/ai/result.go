package ai

// FailureKind classifies why a feature produced no value.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureUnconfigured FailureKind = "unconfigured"
	FailureUpstream     FailureKind = "upstream"
	FailureEmpty        FailureKind = "empty"
	FailureMalformed    FailureKind = "malformed"
)

// Result is the outcome of one assistant feature.
type Result[T any] struct {
	Value   T
	Failure FailureKind
	// Err holds the underlying cause for upstream and malformed failures.
	Err error
}

// OK reports whether the feature produced a value.
func (r Result[T]) OK() bool {
	return r.Failure == FailureNone
}

// Message is a short human readable description of the failure.
func (r Result[T]) Message() string {
	switch r.Failure {
	case FailureNone:
		return ""
	case FailureUnconfigured:
		return "AI assistant is not configured"
	case FailureUpstream:
		return "AI service request failed"
	case FailureEmpty:
		return "AI service returned no content"
	case FailureMalformed:
		return "AI service returned an unreadable response"
	}
	return string(r.Failure)
}

func fail[T any](kind FailureKind, err error) Result[T] {
	return Result[T]{Failure: kind, Err: err}
}
