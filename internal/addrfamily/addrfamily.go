// Package addrfamily resolves a hostname constrained to a requested
// IP address family (spec.md §4.5, §8 property 10). Grounded on
// _examples/original_source/src/util/address_family.rs and
// _examples/original_source/src/util/dns.rs.
package addrfamily

import (
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// AddressFamily constrains host resolution.
type AddressFamily uint8

const (
	// Any accepts the first address of either family.
	Any AddressFamily = iota
	// Inet requires an IPv4 (A record) result.
	Inet
	// Inet6 requires an IPv6 (AAAA record) result.
	Inet6
)

func (a AddressFamily) String() string {
	switch a {
	case Inet:
		return "inet"
	case Inet6:
		return "inet6"
	default:
		return "any"
	}
}

// Parse accepts the same aliases as the original qcp CLI: "4"/"inet"/"inet4",
// "6"/"inet6", "any".
func Parse(s string) (AddressFamily, error) {
	switch strings.ToLower(s) {
	case "4", "inet", "inet4":
		return Inet, nil
	case "6", "inet6":
		return Inet6, nil
	case "any", "":
		return Any, nil
	default:
		return 0, errors.Errorf("invalid address family %q (expected inet, 4, inet6, 6, or any)", s)
	}
}

// LookupHost resolves host, returning only the first result matching
// the requested family. If the host has records but none in the
// requested family, the error names the family (spec.md §8 property 10).
func LookupHost(ctx context.Context, host string, desired AddressFamily) (net.IP, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, errors.Wrapf(err, "host name lookup for %s failed", host)
	}
	for _, addr := range addrs {
		ip := addr.IP
		switch desired {
		case Any:
			return ip, nil
		case Inet:
			if ip.To4() != nil {
				return ip, nil
			}
		case Inet6:
			if ip.To4() == nil {
				return ip, nil
			}
		}
	}
	return nil, errors.Errorf("host %s found, but not as %s", host, desired)
}
