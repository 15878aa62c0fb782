package constants

import (
	"fmt"
	"net/http"
)

// AppError is a strongly typed application error with HTTP status code.
type AppError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMessage returns a copy of the error with a custom message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Status:  e.Status,
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// Wrap returns a copy of the error wrapping an underlying error.
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Status:  e.Status,
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// --- 400 Bad Request ---
var (
	ErrInvalidRequestBody  = &AppError{Status: http.StatusBadRequest, Code: "INVALID_REQUEST_BODY", Message: "invalid request body"}
	ErrMissingRuleID       = &AppError{Status: http.StatusBadRequest, Code: "MISSING_RULE_ID", Message: "rule_id is required"}
	ErrMissingRuleContent  = &AppError{Status: http.StatusBadRequest, Code: "MISSING_RULE_CONTENT", Message: "rule_content is required"}
	ErrMissingCommand      = &AppError{Status: http.StatusBadRequest, Code: "MISSING_COMMAND", Message: "command is required"}
	ErrMissingProposedRule = &AppError{Status: http.StatusBadRequest, Code: "MISSING_PROPOSED_RULE", Message: "proposed_rule is required"}
	ErrDangerousInput      = &AppError{Status: http.StatusBadRequest, Code: "DANGEROUS_INPUT", Message: "input contains potentially dangerous characters"}
	ErrInvalidRuleID       = &AppError{Status: http.StatusBadRequest, Code: "INVALID_RULE_ID", Message: "rule_id may only contain letters, digits, dot, dash, and underscore"}
	ErrInvalidTimeout      = &AppError{Status: http.StatusBadRequest, Code: "INVALID_TIMEOUT", Message: "heartbeat_timeout must be a positive number of seconds"}
)

// --- 404 Not Found ---
var (
	ErrNotFound            = &AppError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "resource not found"}
	ErrDeploymentNotFound  = &AppError{Status: http.StatusNotFound, Code: "DEPLOYMENT_NOT_FOUND", Message: "no active deployment for this rule_id"}
	ErrBackupNotFound      = &AppError{Status: http.StatusNotFound, Code: "BACKUP_NOT_FOUND", Message: "no backup found for this rule"}
)

// --- 409 Conflict ---
var (
	ErrDeploymentInFlight = &AppError{Status: http.StatusConflict, Code: "DEPLOYMENT_IN_FLIGHT", Message: "a deployment with this rule_id is still armed; confirm or roll it back first"}
)

// --- 422 Unprocessable ---
var (
	ErrUnsupportedPlatform = &AppError{Status: http.StatusUnprocessableEntity, Code: "UNSUPPORTED_PLATFORM", Message: "only the nftables platform is supported"}
)

// --- 500 Internal Server Error ---
var (
	ErrInternal        = &AppError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "internal server error"}
	ErrDatabaseFailure = &AppError{Status: http.StatusInternalServerError, Code: "DATABASE_ERROR", Message: "database operation failed"}
	ErrFirewallFailure = &AppError{Status: http.StatusInternalServerError, Code: "FIREWALL_ERROR", Message: "firewall operation failed"}
	ErrNetworkFailure  = &AppError{Status: http.StatusInternalServerError, Code: "NETWORK_ERROR", Message: "failed to collect network state"}
)
