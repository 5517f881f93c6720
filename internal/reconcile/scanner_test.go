package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitsecureops/access-reconciler/internal/domain"
	apperrors "github.com/gitsecureops/access-reconciler/internal/errors"
)

func newTestScanner(gh *fakeGitHub, sink domain.ProgressSink) *Scanner {
	s := NewScanner(gh, gh, gh, sink)
	s.batchDelay = 0
	return s
}

func TestScanSingleOrgFindsCollaboratorGrant(t *testing.T) {
	gh := &fakeGitHub{
		orgRepos: map[string][]domain.RepositoryRef{
			"acme": {repoRef("acme", "r1"), repoRef("acme", "r2")},
		},
		collaborators: map[string][]string{
			"acme/r1": {"bob", "carol"},
			"acme/r2": {"carol"},
		},
		permissions: map[string]domain.PermissionLevel{
			"acme/r1#bob": domain.PermissionWrite,
		},
	}

	result, err := newTestScanner(gh, nil).Scan(context.Background(), domain.SingleOrgScope("acme"), []string{"bob"})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "acme/r1", result.Records[0].Repository.FullName)
	assert.Equal(t, "bob", result.Records[0].Username)
	assert.Equal(t, domain.PermissionWrite, result.Records[0].Permission)
	assert.Empty(t, result.Warnings)
}

func TestScanMatchesUsernamesCaseInsensitively(t *testing.T) {
	gh := &fakeGitHub{
		orgRepos: map[string][]domain.RepositoryRef{
			"acme": {repoRef("acme", "r1"), repoRef("acme", "r2")},
		},
		collaborators: map[string][]string{
			"acme/r1": {"alice"},
			"acme/r2": {"ALICE"},
		},
	}

	result, err := newTestScanner(gh, nil).Scan(context.Background(), domain.SingleOrgScope("acme"), []string{"Alice"})
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "alice", result.Records[0].Username)
	assert.Equal(t, "ALICE", result.Records[1].Username)
}

func TestScanCollaboratorLookupFailureIsIsolated(t *testing.T) {
	gh := &fakeGitHub{
		orgRepos: map[string][]domain.RepositoryRef{
			"acme": {repoRef("acme", "locked"), repoRef("acme", "open")},
		},
		collabErr: map[string]error{
			"acme/locked": apperrors.NewForbiddenError("admin rights required"),
		},
		collaborators: map[string][]string{
			"acme/open": {"bob"},
		},
	}

	result, err := newTestScanner(gh, nil).Scan(context.Background(), domain.SingleOrgScope("acme"), []string{"bob"})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "acme/open", result.Records[0].Repository.FullName)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "acme/locked", result.Warnings[0].Source)
}

func TestScanMultiOrgSwallowsSingleOrgListingFailure(t *testing.T) {
	gh := &fakeGitHub{
		orgRepos: map[string][]domain.RepositoryRef{
			"orgA": {repoRef("orgA", "r1")},
		},
		orgErr: map[string]error{
			"orgB": errors.New("listing failed"),
		},
		collaborators: map[string][]string{
			"orgA/r1": {"bob"},
		},
	}

	result, err := newTestScanner(gh, nil).Scan(context.Background(), domain.MultiOrgScope([]string{"orgA", "orgB"}), []string{"bob"})
	require.NoError(t, err, "one org's failure must not abort the scan")

	require.Len(t, result.Records, 1)
	assert.Equal(t, "orgA/r1", result.Records[0].Repository.FullName)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "orgB", result.Warnings[0].Source)
}

func TestScanSingleOrgListingFailureIsFatal(t *testing.T) {
	gh := &fakeGitHub{
		orgErr: map[string]error{"acme": errors.New("listing failed")},
	}

	_, err := newTestScanner(gh, nil).Scan(context.Background(), domain.SingleOrgScope("acme"), []string{"bob"})
	require.Error(t, err)
}

func TestScanEmptyScopeCompletesAtFullProgress(t *testing.T) {
	gh := &fakeGitHub{}
	sink := &snapshotRecorder{}

	result, err := newTestScanner(gh, sink).Scan(context.Background(), domain.SingleOrgScope("acme"), []string{"bob"})
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Zero(t, gh.collabCalls, "no collaborator lookups for an empty scope")

	last := sink.last()
	assert.Equal(t, domain.PhaseCompleted, last.Phase)
	assert.Equal(t, float64(100), last.Percent)
}

func TestScanProgressIsMonotonicAndEndsAtHundred(t *testing.T) {
	repos := make([]domain.RepositoryRef, 23)
	collaborators := make(map[string][]string, len(repos))
	for i := range repos {
		repos[i] = repoRef("acme", fmt.Sprintf("repo-%02d", i))
		collaborators[repos[i].FullName] = []string{"bob"}
	}

	gh := &fakeGitHub{
		orgRepos:      map[string][]domain.RepositoryRef{"acme": repos},
		collaborators: collaborators,
	}
	sink := &snapshotRecorder{}

	result, err := newTestScanner(gh, sink).Scan(context.Background(), domain.SingleOrgScope("acme"), []string{"bob"})
	require.NoError(t, err)
	assert.Len(t, result.Records, 23)

	snapshots := sink.all()
	require.NotEmpty(t, snapshots)
	prev := -1.0
	for _, s := range snapshots {
		assert.GreaterOrEqual(t, s.Percent, prev, "percent must never decrease")
		assert.LessOrEqual(t, s.Percent, float64(100))
		prev = s.Percent
	}

	last := snapshots[len(snapshots)-1]
	assert.Equal(t, domain.PhaseCompleted, last.Phase)
	assert.Equal(t, float64(100), last.Percent)
	assert.Equal(t, 23, last.Processed)
}

func TestScanEverythingScopeDeduplicatesAndTolerates(t *testing.T) {
	shared := repoRef("acme", "shared")
	gh := &fakeGitHub{
		personal: []domain.RepositoryRef{repoRef("bob", "own"), shared},
		orgList:  []string{"acme", "broken"},
		orgRepos: map[string][]domain.RepositoryRef{
			"acme": {shared, repoRef("acme", "other")},
		},
		orgErr: map[string]error{
			"broken": errors.New("listing failed"),
		},
		collaborators: map[string][]string{
			"bob/own":     {"mallory"},
			"acme/shared": {"mallory"},
			"acme/other":  {},
		},
	}

	result, err := newTestScanner(gh, nil).Scan(context.Background(), domain.EverythingScope(), []string{"mallory"})
	require.NoError(t, err)

	require.Len(t, result.Records, 2, "shared repo must be scanned once")
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "broken", result.Warnings[0].Source)
}

func TestScanRejectsInvalidScope(t *testing.T) {
	gh := &fakeGitHub{}

	_, err := newTestScanner(gh, nil).Scan(context.Background(), domain.ScopeSelector{Kind: domain.ScopeSingleOrg}, []string{"bob"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeBadRequest, appErr.Code)
	assert.Zero(t, gh.collabCalls, "enumeration must not start on a scope error")
}

func TestScanRejectsEmptyTargets(t *testing.T) {
	_, err := newTestScanner(&fakeGitHub{}, nil).Scan(context.Background(), domain.PersonalScope(), nil)
	require.Error(t, err)
}

func TestScanPermissionLookupFailureSkipsRecord(t *testing.T) {
	gh := &fakeGitHub{
		orgRepos: map[string][]domain.RepositoryRef{
			"acme": {repoRef("acme", "r1")},
		},
		collaborators: map[string][]string{
			"acme/r1": {"bob", "carol"},
		},
		permErr: map[string]error{
			"acme/r1#bob": errors.New("permission lookup failed"),
		},
	}

	result, err := newTestScanner(gh, nil).Scan(context.Background(), domain.SingleOrgScope("acme"), []string{"bob", "carol"})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "carol", result.Records[0].Username)
	require.Len(t, result.Warnings, 1)
}
