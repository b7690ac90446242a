// Package portrange parses and represents a contiguous range of UDP
// port numbers (spec.md §3 "PortRange", §8 property 9). Grounded on
// _examples/original_source/src/util/port_range.rs.
package portrange

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PortRange is a contiguous [Begin, End] inclusive interval of UDP
// port numbers. Begin == End == 0 is the zero value, meaning "use the
// default"/"let the OS choose".
type PortRange struct {
	Begin uint16
	End   uint16
}

// IsDefault reports whether r is the unset "let the OS choose" value.
func (r PortRange) IsDefault() bool { return r.Begin == 0 && r.End == 0 }

// String renders "port" for a singleton range or "begin-end" otherwise.
func (r PortRange) String() string {
	if r.Begin == r.End {
		return strconv.Itoa(int(r.Begin))
	}
	return fmt.Sprintf("%d-%d", r.Begin, r.End)
}

// Parse accepts either a single port number ("0" through "65535", "0"
// meaning "any") or a range "a-b" with a <= b and a != 0 ("0-0" is
// accepted as the same "any" value as "0").
func Parse(s string) (PortRange, error) {
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return PortRange{Begin: uint16(n), End: uint16(n)}, nil
	}
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		return PortRange{}, errors.Errorf("invalid port range %q: out of range for a 16-bit port", s)
	}

	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return PortRange{}, errors.Errorf("invalid port range %q: expected a single port number [0..65535] or a range `a-b`", s)
	}
	begin, errA := strconv.ParseUint(strings.TrimSpace(a), 10, 16)
	end, errB := strconv.ParseUint(strings.TrimSpace(b), 10, 16)
	if errA != nil || errB != nil {
		return PortRange{}, errors.Errorf("invalid port range %q: expected a single port number [0..65535] or a range `a-b`", s)
	}
	if begin > end {
		return PortRange{}, errors.Errorf("invalid port range %q (must be increasing)", s)
	}
	if begin == 0 && end != 0 {
		return PortRange{}, errors.Errorf("invalid port range %q (port 0 means \"any\" so cannot be part of a range)", s)
	}
	return PortRange{Begin: uint16(begin), End: uint16(end)}, nil
}
