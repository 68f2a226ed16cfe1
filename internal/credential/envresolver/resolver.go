// Package envresolver is the default domain.CredentialResolver: API key
// material comes from environment variables, one pair per exchange id.
package envresolver

import (
	"context"
	"os"
	"strings"
)

// Resolver resolves credentials for an exchange id by reading
// EXCHANGE_<name>_API_KEY / EXCHANGE_<name>_API_SECRET, where <name> is the
// uppercased exchange name registered for that id. Exchange ids missing
// from the registry, or whose key var is unset, resolve to empty
// credentials rather than an error: public ticker streams need none.
type Resolver struct {
	names map[int]string
}

// New builds a Resolver from an id-to-exchange-name map, typically the same
// one used to build ExchangeDescriptors elsewhere.
func New(names map[int]string) *Resolver {
	cp := make(map[int]string, len(names))
	for id, name := range names {
		cp[id] = name
	}
	return &Resolver{names: cp}
}

// Resolve reads the pair of env vars for exchangeID's exchange name. A
// missing key var resolves to empty strings, not an error.
func (r *Resolver) Resolve(_ context.Context, exchangeID int) (apiKey, apiSecret string, err error) {
	name, ok := r.names[exchangeID]
	if !ok {
		return "", "", nil
	}

	prefix := "EXCHANGE_" + strings.ToUpper(name)
	apiKey = os.Getenv(prefix + "_API_KEY")
	if apiKey == "" {
		return "", "", nil
	}
	apiSecret = os.Getenv(prefix + "_API_SECRET")
	return apiKey, apiSecret, nil
}
