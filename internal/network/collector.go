package network

import (
	"context"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/constants"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/nftexec"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

var (
	// "1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 ..."
	linkLineRegex = regexp.MustCompile(`^\d+:\s+(\S+):\s+<([^>]*)>.*mtu\s+(\d+)`)
	macRegex      = regexp.MustCompile(`link/\S+\s+([0-9a-f:]{17})`)
	vlanRegex     = regexp.MustCompile(`\.(\d+)$`)
)

// Collector builds Context snapshots from the host.
type Collector struct {
	runner     nftexec.Runner
	logger     *logger.Logger
	procNetDev string // overridable for tests
}

// NewCollector creates a network state collector.
func NewCollector(runner nftexec.Runner, log *logger.Logger) *Collector {
	return &Collector{
		runner:     runner,
		logger:     log,
		procNetDev: "/proc/net/dev",
	}
}

// Collect gathers a full snapshot. Partial failures degrade the snapshot
// instead of failing it: an interface listing error yields an empty
// interface set, and ruleset errors are reported inside the ruleset text.
func (c *Collector) Collect(ctx context.Context) *Context {
	snapshot := &Context{
		Interfaces:    c.collectInterfaces(ctx),
		ActiveRuleset: c.ActiveRuleset(ctx),
		Tables:        c.tableInventory(),
		Hostname:      c.hostname(ctx),
		Timestamp:     time.Now(),
	}

	c.logger.Debug("Network context collected",
		"interfaces", len(snapshot.Interfaces),
		"tables", len(snapshot.Tables),
	)
	return snapshot
}

// ActiveRuleset returns the current textual nftables ruleset. Failures are
// reported as a comment line so downstream parsing degrades gracefully.
func (c *Collector) ActiveRuleset(ctx context.Context) string {
	listCtx, cancel := context.WithTimeout(ctx, constants.ListTimeoutSeconds*time.Second)
	defer cancel()

	res := c.runner.Run(listCtx, "nft", "list", "ruleset")
	switch {
	case res.TimedOut():
		return "# Timeout listing ruleset"
	case res.Err != nil:
		return "# nft command not found or not runnable: " + res.Err.Error()
	case res.ExitCode != 0:
		return "# Error listing ruleset: " + strings.TrimSpace(res.Stderr)
	}
	return res.Stdout
}

// collectInterfaces merges `ip -o link`, `ip -o addr`, and /proc/net/dev
// into one interface list.
func (c *Collector) collectInterfaces(ctx context.Context) []Interface {
	linkCtx, cancel := context.WithTimeout(ctx, constants.ListTimeoutSeconds*time.Second)
	linkRes := c.runner.Run(linkCtx, "ip", "-o", "link", "show")
	cancel()

	addrCtx, cancel := context.WithTimeout(ctx, constants.ListTimeoutSeconds*time.Second)
	addrRes := c.runner.Run(addrCtx, "ip", "-o", "addr", "show")
	cancel()

	if !linkRes.OK() && !addrRes.OK() {
		c.logger.Warn("Interface listing unavailable")
		return []Interface{}
	}

	type linkInfo struct {
		state  string
		mtu    int
		mac    string
		vlanID int
	}
	links := make(map[string]linkInfo)

	for _, line := range strings.Split(strings.TrimSpace(linkRes.Stdout), "\n") {
		m := linkLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		rawName := strings.TrimSuffix(m[1], "@")
		name := strings.SplitN(rawName, "@", 2)[0]
		flags := strings.Split(m[2], ",")
		mtu, _ := strconv.Atoi(m[3])

		info := linkInfo{state: constants.LinkStateDown, mtu: mtu}
		for _, f := range flags {
			if f == "UP" {
				info.state = constants.LinkStateUp
				break
			}
		}
		if mm := macRegex.FindStringSubmatch(line); mm != nil {
			info.mac = mm[1]
		}
		// VLAN sub-interfaces carry the tag in their name (eth0.100).
		if vm := vlanRegex.FindStringSubmatch(name); vm != nil {
			info.vlanID, _ = strconv.Atoi(vm[1])
		}

		links[name] = info
	}

	type addrInfo struct {
		ipv4 []string
		ipv6 []string
	}
	addrs := make(map[string]*addrInfo)

	for _, line := range strings.Split(strings.TrimSpace(addrRes.Stdout), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		name := strings.SplitN(strings.TrimSuffix(fields[1], "@"), "@", 2)[0]
		if addrs[name] == nil {
			addrs[name] = &addrInfo{}
		}

		addr := strings.SplitN(fields[3], "/", 2)[0]
		switch fields[2] {
		case "inet":
			addrs[name].ipv4 = append(addrs[name].ipv4, addr)
		case "inet6":
			addrs[name].ipv6 = append(addrs[name].ipv6, addr)
		}
	}

	stats := c.readProcNetDev()

	names := make(map[string]bool)
	for name := range links {
		names[name] = true
	}
	for name := range addrs {
		names[name] = true
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	interfaces := make([]Interface, 0, len(ordered))
	for _, name := range ordered {
		iface := Interface{
			Name:          name,
			State:         constants.LinkStateUnknown,
			MTU:           1500,
			IPv4Addresses: []string{},
			IPv6Addresses: []string{},
		}

		if info, ok := links[name]; ok {
			iface.State = info.state
			iface.MTU = info.mtu
			iface.MACAddress = info.mac
			iface.VLANID = info.vlanID
		}
		if a, ok := addrs[name]; ok {
			if a.ipv4 != nil {
				iface.IPv4Addresses = a.ipv4
			}
			if a.ipv6 != nil {
				iface.IPv6Addresses = a.ipv6
			}
		}
		if s, ok := stats[name]; ok {
			iface.RxBytes = s[0]
			iface.TxBytes = s[1]
		}

		interfaces = append(interfaces, iface)
	}

	return interfaces
}

// readProcNetDev parses /proc/net/dev for rx/tx byte counters.
func (c *Collector) readProcNetDev() map[string][2]uint64 {
	stats := make(map[string][2]uint64)

	data, err := os.ReadFile(c.procNetDev)
	if err != nil {
		return stats
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) <= 2 {
		return stats
	}

	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}
		name := strings.TrimSuffix(fields[0], ":")
		rx, _ := strconv.ParseUint(fields[1], 10, 64)
		tx, _ := strconv.ParseUint(fields[9], 10, 64)
		stats[name] = [2]uint64{rx, tx}
	}

	return stats
}

// hostname asks the host, falling back to the syscall when the binary is
// unavailable.
func (c *Collector) hostname(ctx context.Context) string {
	hostCtx, cancel := context.WithTimeout(ctx, constants.ListTimeoutSeconds*time.Second)
	defer cancel()

	res := c.runner.Run(hostCtx, "hostname")
	if res.OK() {
		if name := strings.TrimSpace(res.Stdout); name != "" {
			return name
		}
	}

	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
