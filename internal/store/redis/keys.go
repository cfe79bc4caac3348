package redis

import "fmt"

const (
	// KeyPrefixService is the prefix for service descriptor keys
	KeyPrefixService = "swb:service:"
	// KeyPrefixDecision is the prefix for cached routing decision keys
	KeyPrefixDecision = "swb:decision:"
	// KeyAllServices is the key for the set of all service names
	KeyAllServices = "swb:services:all"
)

// ServiceKey returns the Redis key for a service descriptor by name
func ServiceKey(name string) string {
	return KeyPrefixService + name
}

// DecisionKey returns the Redis key for a cached routing decision
func DecisionKey(name string) string {
	return KeyPrefixDecision + name
}

// AllServicesKey returns the key for the set of all service names
func AllServicesKey() string {
	return KeyAllServices
}

// ExtractServiceName extracts the service name from a descriptor key
func ExtractServiceName(key string) (string, error) {
	if len(key) <= len(KeyPrefixService) {
		return "", fmt.Errorf("invalid service key: %s", key)
	}
	return key[len(KeyPrefixService):], nil
}
