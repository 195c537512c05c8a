package access

import (
	"sort"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

// Operation names a facade call that requires a signed-in actor.
type Operation string

const (
	OpRisksList       Operation = "risks.list"
	OpRisksUpdate     Operation = "risks.update"
	OpRisksCreate     Operation = "risks.create"
	OpRisksAssign     Operation = "risks.assign"
	OpRisksScan       Operation = "risks.scan"
	OpRisksPrioritize Operation = "risks.prioritize"
	OpRisksRemediate  Operation = "risks.remediate"

	OpFrameworksList    Operation = "frameworks.list"
	OpFrameworksCreate  Operation = "frameworks.create"
	OpFrameworksCatalog Operation = "frameworks.catalog"

	OpAuditList Operation = "audit.list"
	OpAuditLog  Operation = "audit.log"

	OpBillingUpgrade Operation = "billing.upgrade"
	OpBillingPlans   Operation = "billing.plans"

	OpTeamList       Operation = "team.list"
	OpTeamInvite     Operation = "team.invite"
	OpTeamUpdateRole Operation = "team.update_role"
	OpTeamRemove     Operation = "team.remove"

	OpIntegrationsList   Operation = "integrations.list"
	OpIntegrationsToggle Operation = "integrations.toggle"

	OpAIAssist Operation = "ai.assist"
)

// AllOperations lists every guarded operation.
var AllOperations = []Operation{
	OpRisksList, OpRisksUpdate, OpRisksCreate, OpRisksAssign, OpRisksScan, OpRisksPrioritize, OpRisksRemediate,
	OpFrameworksList, OpFrameworksCreate, OpFrameworksCatalog,
	OpAuditList, OpAuditLog,
	OpBillingUpgrade, OpBillingPlans,
	OpTeamList, OpTeamInvite, OpTeamUpdateRole, OpTeamRemove,
	OpIntegrationsList, OpIntegrationsToggle,
	OpAIAssist,
}

var viewerOps = []Operation{
	OpRisksList,
	OpFrameworksList,
	OpAIAssist,
}

var editorOps = append(append([]Operation{}, viewerOps...),
	OpRisksUpdate, OpRisksCreate, OpRisksAssign, OpRisksScan, OpRisksPrioritize, OpRisksRemediate,
	OpFrameworksCreate, OpFrameworksCatalog,
	OpAuditList, OpAuditLog,
)

// Capabilities maps each role to the operations it may perform. Viewers see
// the dashboard and reports, editors also work risks, frameworks and the
// audit trail, and admins additionally manage team, billing and integrations.
var Capabilities = map[stores.Role][]Operation{
	stores.RoleViewer: viewerOps,
	stores.RoleEditor: editorOps,
	stores.RoleAdmin:  AllOperations,
}

// Can reports whether role may perform op according to the table.
func Can(role stores.Role, op Operation) bool {
	for _, allowed := range Capabilities[role] {
		if allowed == op {
			return true
		}
	}
	return false
}

// capabilityData renders the table as OPA data.
func capabilityData() map[string]interface{} {
	caps := make(map[string]interface{}, len(Capabilities))
	for role, ops := range Capabilities {
		names := make([]string, 0, len(ops))
		for _, op := range ops {
			names = append(names, string(op))
		}
		sort.Strings(names)

		list := make([]interface{}, 0, len(names))
		for _, n := range names {
			list = append(list, n)
		}
		caps[string(role)] = list
	}
	return map[string]interface{}{
		"complyeasy": map[string]interface{}{
			"capabilities": caps,
		},
	}
}
