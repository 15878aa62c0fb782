//go:build linux

package network

import (
	"github.com/google/nftables"
)

// familyNames maps netlink table families to nft textual families.
var familyNames = map[nftables.TableFamily]string{
	nftables.TableFamilyINet:   "inet",
	nftables.TableFamilyIPv4:   "ip",
	nftables.TableFamilyIPv6:   "ip6",
	nftables.TableFamilyARP:    "arp",
	nftables.TableFamilyBridge: "bridge",
	nftables.TableFamilyNetdev: "netdev",
}

// tableInventory enumerates tables and chains straight from the kernel via
// netlink. The textual ruleset stays authoritative for rule-level analysis;
// this inventory gives callers a structured overview without parsing. A nil
// result simply means netlink was unavailable (no privileges, no module).
func (c *Collector) tableInventory() []TableInfo {
	conn, err := nftables.New()
	if err != nil {
		c.logger.Debug("nftables netlink unavailable", "error", err)
		return nil
	}
	defer conn.CloseLasting()

	tables, err := conn.ListTables()
	if err != nil {
		c.logger.Debug("Listing nftables tables failed", "error", err)
		return nil
	}

	chains, err := conn.ListChains()
	if err != nil {
		c.logger.Debug("Listing nftables chains failed", "error", err)
		chains = nil
	}

	out := make([]TableInfo, 0, len(tables))
	for _, table := range tables {
		info := TableInfo{
			Family: familyNames[table.Family],
			Name:   table.Name,
		}
		for _, chain := range chains {
			if chain.Table != nil && chain.Table.Name == table.Name && chain.Table.Family == table.Family {
				info.Chains = append(info.Chains, chain.Name)
			}
		}
		out = append(out, info)
	}

	return out
}
