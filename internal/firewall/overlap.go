package firewall

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/utils"
)

// NetworksOverlap reports whether two address specifications can match the
// same address. Bare IPs are promoted to host prefixes before parsing. When
// either side cannot be parsed the answer is true: the classifier must stay
// conservative in the face of syntax it does not understand.
func NetworksOverlap(a, b string) bool {
	p1, err := netip.ParsePrefix(utils.NormalizeCIDR(a))
	if err != nil {
		return true
	}
	p2, err := netip.ParsePrefix(utils.NormalizeCIDR(b))
	if err != nil {
		return true
	}

	// Overlaps is false across IP versions, which is exactly the contract:
	// an ip saddr and an ip6 saddr never match the same packet.
	return p1.Masked().Overlaps(p2.Masked())
}

// PortsOverlap reports whether two port specifications can match the same
// port. An empty spec means "any port" and overlaps with everything. Specs
// may be a single port, an inclusive range "a-b", or a comma-separated list.
// Unparseable specs overlap everything, failing safe.
func PortsOverlap(a, b string) bool {
	if a == "" || b == "" {
		return true
	}

	setA, err := materializePorts(a)
	if err != nil {
		return true
	}
	setB, err := materializePorts(b)
	if err != nil {
		return true
	}

	for p := range setA {
		if setB[p] {
			return true
		}
	}
	return false
}

// materializePorts expands a port spec into the set of ports it matches.
func materializePorts(spec string) (map[int]bool, error) {
	spec = strings.TrimSpace(spec)
	ports := make(map[int]bool)

	switch {
	case strings.Contains(spec, "-"):
		bounds := strings.SplitN(spec, "-", 2)
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, err
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, err
		}
		for p := start; p <= end; p++ {
			ports[p] = true
		}
	case strings.Contains(spec, ","):
		for _, part := range strings.Split(spec, ",") {
			p, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			ports[p] = true
		}
	default:
		p, err := strconv.Atoi(spec)
		if err != nil {
			return nil, err
		}
		ports[p] = true
	}

	return ports, nil
}

// RulesOverlap reports whether two parsed rules can match the same traffic.
// Every criterion both rules specify must agree; an unspecified side is a
// wildcard and always agrees.
func RulesOverlap(a, b *ParsedRule) bool {
	if a.Family != "" && b.Family != "" && a.Family != b.Family {
		return false
	}
	if a.Table != "" && b.Table != "" && a.Table != b.Table {
		return false
	}
	if a.Chain != "" && b.Chain != "" && a.Chain != b.Chain {
		return false
	}

	if a.Protocol != "" && b.Protocol != "" && a.Protocol != b.Protocol {
		return false
	}

	if a.SAddr != "" && b.SAddr != "" && !NetworksOverlap(a.SAddr, b.SAddr) {
		return false
	}
	if a.DAddr != "" && b.DAddr != "" && !NetworksOverlap(a.DAddr, b.DAddr) {
		return false
	}

	if !PortsOverlap(a.SPort, b.SPort) {
		return false
	}
	if !PortsOverlap(a.DPort, b.DPort) {
		return false
	}

	if a.IIf != "" && b.IIf != "" && a.IIf != b.IIf {
		return false
	}
	if a.OIf != "" && b.OIf != "" && a.OIf != b.OIf {
		return false
	}

	return true
}
