package cli

import (
	"fmt"
)

// mapResourceArg maps a friendly resource name to its API path.
func mapResourceArg(arg string) (string, error) {
	switch arg {
	case "products", "data-products":
		return "api/data-products", nil
	case "domains", "data-domains":
		return "api/data-domains", nil
	case "teams":
		return "api/teams", nil
	case "policies", "compliance-policies":
		return "api/compliance/policies", nil
	case "notifications":
		return "api/notifications", nil
	}
	return "", fmt.Errorf("unsupported resource type: %s. Supported types are products, domains, teams, policies, notifications", arg)
}
