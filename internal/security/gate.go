// Package security holds the input-safety gate. Every subprocess invocation
// and file-name construction in this codebase relies on these checks having
// been performed first. Validators reject, they never sanitize: rewriting
// user-supplied rule text would silently change rule semantics.
package security

import (
	"regexp"
	"strings"
)

// dangerousChars are the characters that could enable shell injection if a
// string ever reached a shell. Commands are spawned argv-style, but the gate
// still refuses them so nothing questionable lands in argv or file names.
const dangerousChars = ";|&$`\\"

var (
	interfaceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	tableNameRegex     = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	ruleIDRegex        = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
)

// ContainsDangerousChars reports whether text contains any character that
// could enable shell injection.
func ContainsDangerousChars(text string) bool {
	return strings.ContainsAny(text, dangerousChars)
}

// IsValidInterfaceName reports whether name is a valid Linux interface name:
// non-empty, at most 15 characters (IFNAMSIZ - 1), limited to alphanumerics,
// dash, underscore, and dot.
func IsValidInterfaceName(name string) bool {
	if name == "" || len(name) > 15 {
		return false
	}
	return interfaceNameRegex.MatchString(name)
}

// IsValidTableName reports whether name is a valid nftables table name:
// non-empty, at most 64 characters, starting with a letter or underscore.
func IsValidTableName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	return tableNameRegex.MatchString(name)
}

// IsValidChainName reports whether name is a valid nftables chain name.
// Chains follow the same naming rules as tables.
func IsValidChainName(name string) bool {
	return IsValidTableName(name)
}

// IsValidRuleID reports whether id is safe to embed in a backup file name.
func IsValidRuleID(id string) bool {
	return ruleIDRegex.MatchString(id)
}
