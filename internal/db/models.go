package db

import "time"

// AuditLog records every significant orchestrator action.
type AuditLog struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Details   string    `json:"details"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}

// Deployment records one outcome in a rule's deployment lifecycle.
type Deployment struct {
	ID         string    `json:"id"`
	RuleID     string    `json:"rule_id"`
	Status     string    `json:"status"`
	BackupPath string    `json:"backup_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
