package stores

import (
	"time"
)

// Collection keys. They are private to the service facade; nothing outside
// the api and repository packages should read them.
const (
	KeyUsers         = "db_users"
	KeyOrganizations = "db_orgs"
	KeyRisks         = "db_risks"
	KeyFrameworks    = "db_frameworks"
	KeyAuditLogs     = "db_logs"
	KeyIntegrations  = "db_integrations"
	KeySession       = "session_token"
)

// Role is the access level of a user inside the organization.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Severity of a risk item.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rank orders severities for sorting (High > Medium > Low).
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// RiskStatus is the workflow state of a risk item.
type RiskStatus string

const (
	RiskStatusOpen       RiskStatus = "Open"
	RiskStatusInProgress RiskStatus = "In Progress"
	RiskStatusResolved   RiskStatus = "Resolved"
	RiskStatusIgnored    RiskStatus = "Ignored"
)

func (s RiskStatus) Valid() bool {
	switch s {
	case RiskStatusOpen, RiskStatusInProgress, RiskStatusResolved, RiskStatusIgnored:
		return true
	}
	return false
}

// FrameworkName is one of the supported compliance standards.
type FrameworkName string

const (
	FrameworkSOC2     FrameworkName = "SOC 2 Type II"
	FrameworkGDPR     FrameworkName = "GDPR"
	FrameworkHIPAA    FrameworkName = "HIPAA"
	FrameworkISO27001 FrameworkName = "ISO 27001"
	FrameworkPCIDSS   FrameworkName = "PCI DSS"
	FrameworkCCPA     FrameworkName = "CCPA"
	FrameworkNIST     FrameworkName = "NIST 800-53"
)

func (n FrameworkName) Valid() bool {
	switch n {
	case FrameworkSOC2, FrameworkGDPR, FrameworkHIPAA, FrameworkISO27001,
		FrameworkPCIDSS, FrameworkCCPA, FrameworkNIST:
		return true
	}
	return false
}

// ComplianceStatus summarizes how an organization stands against a framework.
type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "Compliant"
	ComplianceAtRisk       ComplianceStatus = "At Risk"
	ComplianceNonCompliant ComplianceStatus = "Non-Compliant"
	ComplianceInReview     ComplianceStatus = "In Review"
)

func (s ComplianceStatus) Valid() bool {
	switch s {
	case ComplianceCompliant, ComplianceAtRisk, ComplianceNonCompliant, ComplianceInReview:
		return true
	}
	return false
}

// Plan is the subscription tier of the organization.
type Plan string

const (
	PlanBasic      Plan = "Basic"
	PlanPro        Plan = "Pro"
	PlanEnterprise Plan = "Enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// SubscriptionStatus mirrors the payment provider's view of the subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled:
		return true
	}
	return false
}

// IntegrationCategory groups third-party integrations.
type IntegrationCategory string

const (
	IntegrationCloud    IntegrationCategory = "Cloud"
	IntegrationHR       IntegrationCategory = "HR"
	IntegrationDev      IntegrationCategory = "Dev"
	IntegrationSecurity IntegrationCategory = "Security"
)

func (c IntegrationCategory) Valid() bool {
	switch c {
	case IntegrationCloud, IntegrationHR, IntegrationDev, IntegrationSecurity:
		return true
	}
	return false
}

// User is a member of the organization.
type User struct {
	ID             string     `json:"id" yaml:"id" validate:"required"`
	Name           string     `json:"name" yaml:"name" validate:"required"`
	Email          string     `json:"email" yaml:"email" validate:"required,email"`
	Role           Role       `json:"role" yaml:"role" validate:"enum"`
	Avatar         string     `json:"avatar" yaml:"avatar"`
	OrganizationID string     `json:"organizationId,omitempty" yaml:"organizationId"`
	LastLogin      *time.Time `json:"lastLogin,omitempty" yaml:"lastLogin,omitempty"`
}

// Organization is the single tenant of this deployment.
type Organization struct {
	ID                 string             `json:"id" yaml:"id" validate:"required"`
	Name               string             `json:"name" yaml:"name" validate:"required"`
	Plan               Plan               `json:"plan" yaml:"plan" validate:"enum"`
	StripeCustomerID   string             `json:"stripeCustomerId,omitempty" yaml:"stripeCustomerId,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus,omitempty" yaml:"subscriptionStatus" validate:"omitempty,enum"`
}

// Risk is a detected compliance or security issue.
type Risk struct {
	ID              string     `json:"id" yaml:"id" validate:"required"`
	Severity        Severity   `json:"severity" yaml:"severity" validate:"enum"`
	Description     string     `json:"description" yaml:"description" validate:"required"`
	Category        string     `json:"category" yaml:"category"`
	DetectedAt      time.Time  `json:"detectedAt" yaml:"detectedAt"`
	Status          RiskStatus `json:"status" yaml:"status" validate:"enum"`
	AssignedTo      string     `json:"assignedTo,omitempty" yaml:"assignedTo,omitempty"`
	AssignedAvatar  string     `json:"assignedAvatar,omitempty" yaml:"assignedAvatar,omitempty"`
	AIPriorityScore *int       `json:"aiPriorityScore,omitempty" yaml:"aiPriorityScore,omitempty" validate:"omitempty,min=0,max=100"`
	AIRationale     string     `json:"aiRationale,omitempty" yaml:"aiRationale,omitempty"`
	MitigationPlan  string     `json:"mitigationPlan,omitempty" yaml:"mitigationPlan,omitempty"`
	OrganizationID  string     `json:"organizationId,omitempty" yaml:"organizationId,omitempty"`
}

// ComplianceFramework is a standard the organization is actively tracking.
type ComplianceFramework struct {
	ID             string           `json:"id" yaml:"id" validate:"required"`
	Name           FrameworkName    `json:"name" yaml:"name" validate:"enum"`
	Status         ComplianceStatus `json:"status" yaml:"status" validate:"enum"`
	Progress       int              `json:"progress" yaml:"progress" validate:"min=0,max=100"`
	NextAuditDate  string           `json:"nextAuditDate" yaml:"nextAuditDate" validate:"required,datetime=2006-01-02"`
	Region         string           `json:"region,omitempty" yaml:"region,omitempty"`
	OrganizationID string           `json:"organizationId,omitempty" yaml:"organizationId,omitempty"`
}

// AuditLogEntry is one immutable line of the audit trail.
type AuditLogEntry struct {
	ID             string    `json:"id" yaml:"id" validate:"required"`
	Action         string    `json:"action" yaml:"action" validate:"required"`
	User           string    `json:"user" yaml:"user" validate:"required"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	Hash           string    `json:"hash" yaml:"hash" validate:"required"`
	Verified       bool      `json:"verified" yaml:"verified"`
	OrganizationID string    `json:"organizationId,omitempty" yaml:"organizationId,omitempty"`
}

// Integration is a connector to an external system that feeds evidence.
type Integration struct {
	ID        string              `json:"id" yaml:"id" validate:"required"`
	Name      string              `json:"name" yaml:"name" validate:"required"`
	Category  IntegrationCategory `json:"category" yaml:"category" validate:"enum"`
	Connected bool                `json:"connected" yaml:"connected"`
	LastSync  *time.Time          `json:"lastSync,omitempty" yaml:"lastSync,omitempty"`
	Icon      string              `json:"icon" yaml:"icon"`
}

// Session is the persisted sign-in state of the local client.
type Session struct {
	Token     string    `json:"token" validate:"required"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}
