package access

import (
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/ast"
)

// policyPackage is the Rego package a replacement policy must declare.
const policyPackage = "data.complyeasy.access"

// LoadPolicyFile reads a Rego policy to pass to WithPolicy. The module must
// parse and declare package complyeasy.access.
func LoadPolicyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy file: %w", err)
	}

	module, err := ast.ParseModuleWithOpts(path, string(data), ast.ParserOptions{RegoVersion: ast.RegoV1})
	if err != nil {
		return "", fmt.Errorf("failed to parse policy %s: %w", path, err)
	}
	if got := module.Package.Path.String(); got != policyPackage {
		return "", fmt.Errorf("policy %s declares %s, want package complyeasy.access", path, got)
	}
	return string(data), nil
}
