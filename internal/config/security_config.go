// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityIngest                        // Shared ingest token required
	SecurityPartner                       // Partner access token required
	SecurityOperator                      // Access token with the operator role
)

// RouteSecurityConfig maps named HTTP routes and gRPC full method names to
// their required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	// Probes - Public
	"healthz":                      SecurityPublic,
	"metrics":                      SecurityPublic,
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/List":  SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// Confirmation ingestion - Ingest token
	"ingest-confirmation": SecurityIngest,

	// Partner API - Access token
	"submit-transaction": SecurityPartner,
	"list-transactions":  SecurityPartner,
	"get-transaction":    SecurityPartner,
	"get-work-item":      SecurityPartner,
	"list-balances":      SecurityPartner,
	"quote-fee":          SecurityPartner,

	// Back office - Operator role
	"top-up-balance":    SecurityOperator,
	"propose-fee-rule":  SecurityOperator,
	"approve-fee-rule":  SecurityOperator,
	"activate-fee-rule": SecurityOperator,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityOperator
}
