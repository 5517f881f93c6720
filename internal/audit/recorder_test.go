package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// fakeStorage keeps audit entries in memory
type fakeStorage struct {
	entries []*domain.AuditEntry
	saveErr error
}

func (f *fakeStorage) SaveAuditEntry(_ context.Context, entry *domain.AuditEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeStorage) ListAuditEntries(_ context.Context, action domain.AuditAction, limit int) ([]*domain.AuditEntry, error) {
	var out []*domain.AuditEntry
	for _, e := range f.entries {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStorage) CountAuditEntries(context.Context) (int64, error) {
	return int64(len(f.entries)), nil
}

func (f *fakeStorage) Migrate(context.Context) error { return nil }
func (f *fakeStorage) Close() error                  { return nil }

// fakeNotifier records notification events
type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Notify(_ context.Context, eventKind, _ string, _ map[string]interface{}) {
	f.events = append(f.events, eventKind)
}

func TestRecordScanPersistsEntryAndNotifies(t *testing.T) {
	store := &fakeStorage{}
	notifier := &fakeNotifier{}
	rec := NewRecorder(store, notifier)

	result := &domain.ScanResult{
		Records: []domain.AccessRecord{
			{Repository: domain.RepositoryRef{FullName: "acme/r1"}, Username: "bob"},
		},
		Warnings: []domain.ScanWarning{{Source: "orgB", Message: "listing failed"}},
	}
	rec.RecordScan(context.Background(), "admin", domain.SingleOrgScope("acme"), []string{"bob"}, result)

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, domain.AuditActionScan, entry.Action)
	assert.Equal(t, "single_org:acme", entry.Scope)
	assert.Equal(t, "admin", entry.Actor)
	assert.Equal(t, []string{"bob"}, entry.TargetUsers)
	assert.Equal(t, 1, entry.RepoCount)
	assert.NotEmpty(t, entry.ID)
	assert.WithinDuration(t, time.Now(), entry.CreatedAt, time.Minute)

	assert.Equal(t, []string{"access_scan"}, notifier.events)
}

func TestRecordRemovalReportsPartialFailure(t *testing.T) {
	store := &fakeStorage{}
	rec := NewRecorder(store, nil)

	summary := &domain.RemovalSummary{
		SuccessCount: 2,
		FailureCount: 1,
		Outcomes:     make([]domain.RemovalOutcome, 3),
	}
	rec.RecordRemoval(context.Background(), "admin", []string{"bob"}, summary)

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, domain.AuditActionRemove, entry.Action)
	assert.Equal(t, 2, entry.SuccessCount)
	assert.Equal(t, 1, entry.FailureCount)
	assert.Contains(t, entry.Details, "partial failure")
}

func TestRecordSwallowsPersistenceFailures(t *testing.T) {
	store := &fakeStorage{saveErr: errors.New("disk full")}
	notifier := &fakeNotifier{}
	rec := NewRecorder(store, notifier)

	// Must not panic; the pipelines never depend on audit persistence.
	rec.RecordRemoval(context.Background(), "admin", nil, &domain.RemovalSummary{SuccessCount: 1})

	assert.Empty(t, store.entries)
	assert.Equal(t, []string{"access_remove"}, notifier.events)
}

func TestRecordTwoFactorAudit(t *testing.T) {
	store := &fakeStorage{}
	rec := NewRecorder(store, nil)

	rec.RecordTwoFactorAudit(context.Background(), "admin", &domain.TwoFactorReport{
		Org:            "acme",
		TotalMembers:   10,
		CompliantCount: 8,
		NonCompliant:   []string{"bob", "carol"},
		CompliancePct:  80,
	})

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, domain.AuditActionTwoFactorScan, entry.Action)
	assert.Equal(t, []string{"bob", "carol"}, entry.TargetUsers)
	assert.Equal(t, 8, entry.SuccessCount)
	assert.Equal(t, 2, entry.FailureCount)
}

func TestDescribeScope(t *testing.T) {
	assert.Equal(t, "personal", describeScope(domain.PersonalScope()))
	assert.Equal(t, "everything", describeScope(domain.EverythingScope()))
	assert.Equal(t, "single_org:acme", describeScope(domain.SingleOrgScope("acme")))
	assert.Equal(t, "multi_org:orgA,orgB", describeScope(domain.MultiOrgScope([]string{"orgA", "orgB"})))
}
