package api

import (
	"context"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/ai"
)

// AIService gives signed-in users access to the AI assistant.
type AIService struct {
	c *core
}

// Assistant authorizes the actor and returns the assistant. Its features
// report failures in their results rather than as errors.
func (s *AIService) Assistant(ctx context.Context) (_ *ai.Assistant, err error) {
	cl, err := s.c.start(ctx, string(access.OpAIAssist), access.OpAIAssist)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	return s.c.assistant, nil
}

// GapAnalysis compares the tracked frameworks with target.
func (s *AIService) GapAnalysis(ctx context.Context, target string) (_ ai.Result[string], err error) {
	cl, err := s.c.start(ctx, string(access.OpAIAssist), access.OpAIAssist)
	if err != nil {
		return ai.Result[string]{}, err
	}
	defer func() { err = cl.end(err) }()

	frameworks, err := s.c.repos.Frameworks.GetAll(cl.ctx())
	if err != nil {
		return ai.Result[string]{}, err
	}
	current := make([]string, 0, len(frameworks))
	for _, f := range frameworks {
		current = append(current, string(f.Name))
	}
	return s.c.assistant.GapAnalysis(cl.ctx(), current, target), nil
}

// ComplianceReport drafts a report summary for the organization.
func (s *AIService) ComplianceReport(ctx context.Context, framework, notes string) (_ ai.Result[string], err error) {
	cl, err := s.c.start(ctx, string(access.OpAIAssist), access.OpAIAssist)
	if err != nil {
		return ai.Result[string]{}, err
	}
	defer func() { err = cl.end(err) }()

	org, found, err := s.c.repos.Organization.Get(cl.ctx())
	if err != nil {
		return ai.Result[string]{}, err
	}
	company := "our organization"
	if found {
		company = org.Name
	}
	return s.c.assistant.ComplianceReport(cl.ctx(), framework, company, notes), nil
}
