// Package ipintel resolves a requesting IP to the autonomous system
// organisation and city used by the two-stage IP flag lookup.
package ipintel

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrInvalidIP is returned for addresses that do not parse. Callers degrade
// to empty values; it never counts as a collaborator failure.
var ErrInvalidIP = errors.New("invalid ip address")

// Info is what the lookup knows about an address. Empty fields mean unknown.
type Info struct {
	ASNOrg string `json:"asn_org"`
	City   string `json:"city"`
}

// Resolver looks up an address.
type Resolver interface {
	Lookup(ctx context.Context, ip string) (Info, error)
}

func parseIP(ip string) (net.IP, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("%q: %w", ip, ErrInvalidIP)
	}
	return parsed, nil
}
