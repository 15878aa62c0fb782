package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsDangerousChars(t *testing.T) {
	for _, c := range []string{";", "|", "&", "$", "`", `\`} {
		assert.True(t, ContainsDangerousChars("accept"+c), "char %q should be rejected", c)
	}

	assert.True(t, ContainsDangerousChars("accept; rm -rf /"))
	assert.False(t, ContainsDangerousChars("add rule inet filter input tcp dport 22 accept"))
	assert.False(t, ContainsDangerousChars(""))
	assert.False(t, ContainsDangerousChars(`iifname "eth0" accept`))
}

func TestIsValidInterfaceName(t *testing.T) {
	assert.True(t, IsValidInterfaceName("eth0"))
	assert.True(t, IsValidInterfaceName("enp3s0"))
	assert.True(t, IsValidInterfaceName("br-lan.100"))
	assert.True(t, IsValidInterfaceName("wg_0"))

	assert.False(t, IsValidInterfaceName(""))
	assert.False(t, IsValidInterfaceName(strings.Repeat("e", 16)), "IFNAMSIZ limit")
	assert.True(t, IsValidInterfaceName(strings.Repeat("e", 15)))
	assert.False(t, IsValidInterfaceName("eth0;"))
	assert.False(t, IsValidInterfaceName("eth 0"))
}

func TestIsValidTableAndChainName(t *testing.T) {
	assert.True(t, IsValidTableName("filter"))
	assert.True(t, IsValidTableName("_afo"))
	assert.True(t, IsValidTableName("filter_v2"))

	assert.False(t, IsValidTableName(""))
	assert.False(t, IsValidTableName("2filter"), "must not start with a digit")
	assert.False(t, IsValidTableName("fil-ter"), "dash is not allowed")
	assert.False(t, IsValidTableName(strings.Repeat("t", 65)))
	assert.True(t, IsValidTableName(strings.Repeat("t", 64)))

	// Chains share table naming rules.
	assert.True(t, IsValidChainName("input"))
	assert.False(t, IsValidChainName("in put"))
}

func TestIsValidRuleID(t *testing.T) {
	assert.True(t, IsValidRuleID("web-rule.1"))
	assert.False(t, IsValidRuleID(""))
	assert.False(t, IsValidRuleID("../escape"), "path traversal must not reach file names")
	assert.False(t, IsValidRuleID("r1/sub"))
}
