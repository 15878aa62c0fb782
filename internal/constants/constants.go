package constants

// --- Address families ---
const (
	FamilyInet = "inet"
	FamilyIPv4 = "ip"
	FamilyIPv6 = "ip6"
)

// --- Protocols ---
const (
	ProtocolTCP    = "tcp"
	ProtocolUDP    = "udp"
	ProtocolICMP   = "icmp"
	ProtocolICMPv6 = "icmpv6"
	ProtocolAny    = "any"
)

// --- Rule actions ---
const (
	ActionAccept  = "accept"
	ActionDrop    = "drop"
	ActionReject  = "reject"
	ActionReturn  = "return"
	ActionJump    = "jump"
	ActionGoto    = "goto"
	ActionLog     = "log"
	ActionCounter = "counter"
)

// --- Conflict types ---
const (
	ConflictShadow        = "shadow"
	ConflictRedundant     = "redundant"
	ConflictContradiction = "contradiction"
	ConflictOverlap       = "overlap"
)

// --- Deployment statuses ---
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusDeployed   = "deployed"
	StatusFailed     = "failed"
	StatusRolledBack = "rolled_back"
)

// --- Validation platforms ---
const (
	PlatformNFTables = "nftables"
)

// --- WebSocket / Event Types ---
const (
	EventTypeDeployment = "deployment"
	EventTypeConflict   = "conflict"
	EventTypeTraffic    = "traffic"
	EventTypeError      = "error"
)

// --- Audit Actions ---
const (
	AuditActionValidateSyntax  = "validate_syntax"
	AuditActionDetectConflicts = "detect_conflicts"
	AuditActionDeployPolicy    = "deploy_policy"
	AuditActionConfirmDeploy   = "confirm_deployment"
	AuditActionRollback        = "rollback_deployment"
)

// --- Subprocess timeouts (seconds) ---
const (
	ListTimeoutSeconds    = 10
	ApplyTimeoutSeconds   = 30
	RestoreTimeoutSeconds = 10
	WatchdogJoinSeconds   = 2
)

// --- Interface link states ---
const (
	LinkStateUp      = "UP"
	LinkStateDown    = "DOWN"
	LinkStateUnknown = "UNKNOWN"
)
