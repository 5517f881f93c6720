package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gitsecureops/access-reconciler/internal/domain"
	"github.com/gitsecureops/access-reconciler/internal/notify"
	"github.com/gitsecureops/access-reconciler/internal/storage"
)

// Recorder defines the interface for recording administrative actions
type Recorder interface {
	// RecordScan records a completed access scan
	RecordScan(ctx context.Context, actor string, scope domain.ScopeSelector, targets []string, result *domain.ScanResult)

	// RecordRemoval records a completed removal run
	RecordRemoval(ctx context.Context, actor string, targets []string, summary *domain.RemovalSummary)

	// RecordTwoFactorAudit records a two-factor compliance audit
	RecordTwoFactorAudit(ctx context.Context, actor string, report *domain.TwoFactorReport)

	// List retrieves recorded entries, newest first
	List(ctx context.Context, action domain.AuditAction, limit int) ([]*domain.AuditEntry, error)
}

// recorder implements the Recorder interface. Persistence and notification
// are both best-effort: failures are logged and never surfaced to the
// pipelines whose outcomes are being recorded.
type recorder struct {
	storage  storage.Storage
	notifier notify.Notifier
}

// NewRecorder creates a new audit recorder
func NewRecorder(store storage.Storage, notifier notify.Notifier) Recorder {
	if notifier == nil {
		notifier = notify.NewNopNotifier()
	}
	return &recorder{
		storage:  store,
		notifier: notifier,
	}
}

// RecordScan records a completed access scan
func (r *recorder) RecordScan(ctx context.Context, actor string, scope domain.ScopeSelector, targets []string, result *domain.ScanResult) {
	entry := &domain.AuditEntry{
		ID:          uuid.New().String(),
		Action:      domain.AuditActionScan,
		Scope:       describeScope(scope),
		Actor:       actor,
		TargetUsers: targets,
		RepoCount:   len(result.Records),
		Details:     fmt.Sprintf("%d grants found, %d warnings", len(result.Records), len(result.Warnings)),
		CreatedAt:   time.Now(),
	}
	r.save(ctx, entry)

	r.notifier.Notify(ctx, "access_scan",
		fmt.Sprintf("Access scan over %s found %d grants for %d users", entry.Scope, len(result.Records), len(targets)),
		map[string]interface{}{
			"scope":    entry.Scope,
			"grants":   len(result.Records),
			"warnings": len(result.Warnings),
		})
}

// RecordRemoval records a completed removal run
func (r *recorder) RecordRemoval(ctx context.Context, actor string, targets []string, summary *domain.RemovalSummary) {
	entry := &domain.AuditEntry{
		ID:           uuid.New().String(),
		Action:       domain.AuditActionRemove,
		Scope:        "records",
		Actor:        actor,
		TargetUsers:  targets,
		RepoCount:    len(summary.Outcomes),
		SuccessCount: summary.SuccessCount,
		FailureCount: summary.FailureCount,
		Details:      removalDetails(summary),
		CreatedAt:    time.Now(),
	}
	r.save(ctx, entry)

	r.notifier.Notify(ctx, "access_remove",
		fmt.Sprintf("Access removal: %d succeeded, %d failed", summary.SuccessCount, summary.FailureCount),
		map[string]interface{}{
			"success_count": summary.SuccessCount,
			"failure_count": summary.FailureCount,
		})
}

// RecordTwoFactorAudit records a two-factor compliance audit
func (r *recorder) RecordTwoFactorAudit(ctx context.Context, actor string, report *domain.TwoFactorReport) {
	entry := &domain.AuditEntry{
		ID:           uuid.New().String(),
		Action:       domain.AuditActionTwoFactorScan,
		Scope:        "single_org:" + report.Org,
		Actor:        actor,
		TargetUsers:  report.NonCompliant,
		SuccessCount: report.CompliantCount,
		FailureCount: len(report.NonCompliant),
		Details:      fmt.Sprintf("%.1f%% compliant (%d of %d members)", report.CompliancePct, report.CompliantCount, report.TotalMembers),
		CreatedAt:    time.Now(),
	}
	r.save(ctx, entry)

	r.notifier.Notify(ctx, "two_factor_audit",
		fmt.Sprintf("2FA audit for %s: %d of %d members compliant", report.Org, report.CompliantCount, report.TotalMembers),
		map[string]interface{}{
			"org":           report.Org,
			"non_compliant": len(report.NonCompliant),
		})
}

// List retrieves recorded entries, newest first
func (r *recorder) List(ctx context.Context, action domain.AuditAction, limit int) ([]*domain.AuditEntry, error) {
	return r.storage.ListAuditEntries(ctx, action, limit)
}

func (r *recorder) save(ctx context.Context, entry *domain.AuditEntry) {
	if err := r.storage.SaveAuditEntry(ctx, entry); err != nil {
		log.Printf("Warning: failed to save audit entry %s: %v", entry.ID, err)
	}
}

func describeScope(scope domain.ScopeSelector) string {
	switch scope.Kind {
	case domain.ScopeSingleOrg:
		return "single_org:" + scope.Orgs[0]
	case domain.ScopeMultiOrg:
		desc := "multi_org:"
		for i, org := range scope.Orgs {
			if i > 0 {
				desc += ","
			}
			desc += org
		}
		return desc
	default:
		return string(scope.Kind)
	}
}

func removalDetails(summary *domain.RemovalSummary) string {
	if summary.FailureCount == 0 {
		return fmt.Sprintf("%d removals succeeded", summary.SuccessCount)
	}
	if summary.PartialFailure() {
		return fmt.Sprintf("partial failure: %d succeeded, %d failed", summary.SuccessCount, summary.FailureCount)
	}
	return fmt.Sprintf("%d removals failed", summary.FailureCount)
}
