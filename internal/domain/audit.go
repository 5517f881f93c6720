package domain

import "time"

// AuditAction identifies the kind of administrative action recorded
type AuditAction string

const (
	AuditActionScan          AuditAction = "access_scan"
	AuditActionRemove        AuditAction = "access_remove"
	AuditActionTwoFactorScan AuditAction = "two_factor_audit"
)

// AuditEntry is one persisted record of an administrative action
type AuditEntry struct {
	ID           string      `json:"id"`
	Action       AuditAction `json:"action"`
	Scope        string      `json:"scope"`
	Actor        string      `json:"actor"`
	TargetUsers  []string    `json:"target_users"`
	RepoCount    int         `json:"repo_count"`
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
	Details      string      `json:"details,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TwoFactorReport summarizes an organization's two-factor compliance
type TwoFactorReport struct {
	Org            string    `json:"org"`
	TotalMembers   int       `json:"total_members"`
	CompliantCount int       `json:"compliant_count"`
	NonCompliant   []string  `json:"non_compliant"`
	CompliancePct  float64   `json:"compliance_pct"`
	GeneratedAt    time.Time `json:"generated_at"`
}
