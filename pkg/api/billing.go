package api

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// Currency of every price.
const Currency = "USD"

// PricingTier describes one subscription plan.
type PricingTier struct {
	Plan        stores.Plan     `json:"plan"`
	Price       decimal.Decimal `json:"price"`
	Period      string          `json:"period"`
	Target      string          `json:"target"`
	Features    []string        `json:"features"`
	Recommended bool            `json:"recommended"`
}

// FormatPrice renders the tier price as "$200/mo".
func (t PricingTier) FormatPrice() string {
	return fmt.Sprintf("$%s/%s", t.Price.StringFixedBank(0), t.Period)
}

// PricingTiers lists the plans in ascending price.
var PricingTiers = []PricingTier{
	{
		Plan:     stores.PlanBasic,
		Price:    decimal.NewFromInt(75),
		Period:   "mo",
		Target:   "Small Teams",
		Features: []string{"Core reports", "5 Frameworks", "20 Integrations", "Email Support"},
	},
	{
		Plan:        stores.PlanPro,
		Price:       decimal.NewFromInt(200),
		Period:      "mo",
		Target:      "Mid-SMBs",
		Features:    []string{"Predictive AI", "Vendor Management", "50+ Integrations", "Priority Support"},
		Recommended: true,
	},
	{
		Plan:     stores.PlanEnterprise,
		Price:    decimal.NewFromInt(500),
		Period:   "mo",
		Target:   "Large SMBs/MSPs",
		Features: []string{"Custom AI Agents", "Unlimited Integrations", "Dedicated Support", "White-label"},
	},
}

// TierFor returns the pricing tier of plan.
func TierFor(plan stores.Plan) (PricingTier, bool) {
	for _, t := range PricingTiers {
		if t.Plan == plan {
			return t, true
		}
	}
	return PricingTier{}, false
}

// Receipt confirms a plan change.
type Receipt struct {
	Success      bool                `json:"success"`
	Plan         stores.Plan         `json:"plan"`
	Price        decimal.Decimal     `json:"price"`
	Currency     string              `json:"currency"`
	Organization stores.Organization `json:"organization"`
}

// BillingService manages the organization's subscription.
type BillingService struct {
	c *core
}

// Plans returns the pricing tiers.
func (s *BillingService) Plans(ctx context.Context) (_ []PricingTier, err error) {
	cl, err := s.c.start(ctx, string(access.OpBillingPlans), access.OpBillingPlans)
	if err != nil {
		return nil, err
	}
	defer func() { err = cl.end(err) }()

	return append([]PricingTier(nil), PricingTiers...), nil
}

// Upgrade moves the organization to plan. It is the slowest operation, as it
// stands in for payment confirmation.
func (s *BillingService) Upgrade(ctx context.Context, plan stores.Plan) (_ Receipt, err error) {
	cl, err := s.c.start(ctx, string(access.OpBillingUpgrade), access.OpBillingUpgrade)
	if err != nil {
		return Receipt{}, err
	}
	defer func() { err = cl.end(err) }()

	tier, ok := TierFor(plan)
	if !ok {
		return Receipt{}, newError(KindInvalid, cl.op, fmt.Sprintf("unknown plan %q", plan), nil)
	}

	org, err := s.c.repos.Organization.UpdatePlan(cl.ctx(), plan)
	if err != nil {
		return Receipt{}, err
	}

	receipt := Receipt{
		Success:      true,
		Plan:         plan,
		Price:        tier.Price,
		Currency:     Currency,
		Organization: org,
	}
	cl.publish(telemetry.EventTypePlanUpgraded, org.ID, fmt.Sprintf("plan changed to %s", plan))
	return receipt, cl.audit(fmt.Sprintf("Subscription changed to %s plan", plan))
}
