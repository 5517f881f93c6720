package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/gitsecureops/access-reconciler/internal/domain"
	apperrors "github.com/gitsecureops/access-reconciler/internal/errors"
)

// Progress split for a scan run: repository enumeration owns the first 20%,
// collaborator scanning runs up to 95%, the remainder is finalization.
const (
	enumeratePercent = 20.0
	scanPercent      = 75.0
)

// Scanner searches the repositories of a scope for direct collaborator grants
// held by a set of target usernames.
type Scanner struct {
	repos   RepositoryLister
	collabs CollaboratorLister
	perms   PermissionResolver
	sink    domain.ProgressSink

	batchSize  int
	batchDelay time.Duration
}

// NewScanner creates a new access scanner
func NewScanner(repos RepositoryLister, collabs CollaboratorLister, perms PermissionResolver, sink domain.ProgressSink) *Scanner {
	if sink == nil {
		sink = domain.NopSink{}
	}
	return &Scanner{
		repos:      repos,
		collabs:    collabs,
		perms:      perms,
		sink:       sink,
		batchSize:  DefaultScanBatchSize,
		batchDelay: DefaultScanDelay,
	}
}

// repoScan is the per-repository result inside a scan batch
type repoScan struct {
	records  []domain.AccessRecord
	warnings []domain.ScanWarning
}

// Scan enumerates the scope and returns one AccessRecord per (repository,
// matched target) pair, in repository order. Per-organization enumeration
// failures and per-repository lookup failures are collected as warnings and
// never abort the run; only an invalid scope or context cancellation does.
func (s *Scanner) Scan(ctx context.Context, scope domain.ScopeSelector, targets []string) (*domain.ScanResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if len(targets) == 0 {
		return nil, apperrors.NewBadRequestError("at least one target username is required")
	}

	targetSet := make(map[string]bool, len(targets))
	for _, t := range targets {
		targetSet[strings.ToLower(t)] = true
	}

	s.sink.Publish(domain.BatchProgress{
		Phase:   domain.PhaseRunning,
		Label:   "Loading Repositories",
		Percent: 0,
	})

	repos, warnings, err := s.enumerate(ctx, scope)
	if err != nil {
		s.sink.Publish(domain.BatchProgress{
			Phase: domain.PhaseFailed,
			Label: "Failed",
		})
		return nil, err
	}

	s.sink.Publish(domain.BatchProgress{
		Phase:   domain.PhaseRunning,
		Label:   "Searching for Access",
		Total:   len(repos),
		Percent: enumeratePercent,
	})

	scans, err := RunBatches(ctx, repos, s.batchSize, s.batchDelay,
		func(ctx context.Context, repo domain.RepositoryRef) repoScan {
			return s.scanRepository(ctx, repo, targetSet)
		},
		func(processed int) {
			s.sink.Publish(domain.BatchProgress{
				Phase:     domain.PhaseRunning,
				Label:     "Searching for Access",
				Processed: processed,
				Total:     len(repos),
				Percent:   enumeratePercent + scanPercent*float64(processed)/float64(len(repos)),
			})
		})
	if err != nil {
		s.sink.Publish(domain.BatchProgress{
			Phase: domain.PhaseFailed,
			Label: "Failed",
		})
		return nil, err
	}

	result := &domain.ScanResult{Warnings: warnings}
	for _, sc := range scans {
		result.Records = append(result.Records, sc.records...)
		result.Warnings = append(result.Warnings, sc.warnings...)
	}

	s.sink.Publish(domain.BatchProgress{
		Phase:     domain.PhaseCompleted,
		Label:     "Completed",
		Processed: len(repos),
		Total:     len(repos),
		Percent:   100,
	})

	return result, nil
}

// enumerate resolves the scope to a flat, de-duplicated repository list.
// For multi-org and everything scopes a single source's failure contributes
// a warning instead of aborting; for the personal and single-org scopes the
// sole source's failure is fatal.
func (s *Scanner) enumerate(ctx context.Context, scope domain.ScopeSelector) ([]domain.RepositoryRef, []domain.ScanWarning, error) {
	var repos []domain.RepositoryRef
	var warnings []domain.ScanWarning

	switch scope.Kind {
	case domain.ScopePersonalOnly:
		personal, err := s.repos.ListPersonalRepositories(ctx)
		if err != nil {
			return nil, nil, err
		}
		repos = personal

	case domain.ScopeSingleOrg:
		orgRepos, err := s.repos.ListOrgRepositories(ctx, scope.Orgs[0])
		if err != nil {
			return nil, nil, err
		}
		repos = orgRepos

	case domain.ScopeMultiOrg:
		for _, org := range scope.Orgs {
			orgRepos, err := s.repos.ListOrgRepositories(ctx, org)
			if err != nil {
				warnings = append(warnings, domain.ScanWarning{Source: org, Message: err.Error()})
				continue
			}
			repos = append(repos, orgRepos...)
		}

	case domain.ScopeEverything:
		personal, err := s.repos.ListPersonalRepositories(ctx)
		if err != nil {
			warnings = append(warnings, domain.ScanWarning{Source: "personal", Message: err.Error()})
		} else {
			repos = append(repos, personal...)
		}

		orgs, err := s.repos.ListOrganizations(ctx)
		if err != nil {
			warnings = append(warnings, domain.ScanWarning{Source: "organizations", Message: err.Error()})
		}
		for _, org := range orgs {
			orgRepos, err := s.repos.ListOrgRepositories(ctx, org)
			if err != nil {
				warnings = append(warnings, domain.ScanWarning{Source: org, Message: err.Error()})
				continue
			}
			repos = append(repos, orgRepos...)
		}
	}

	return dedupeRepositories(repos), warnings, nil
}

// scanRepository lists direct collaborators, filters them against the target
// set and resolves each match's permission level. Lookup failures, commonly
// a 403 when the caller lacks admin rights on the repository, become warnings.
func (s *Scanner) scanRepository(ctx context.Context, repo domain.RepositoryRef, targets map[string]bool) repoScan {
	collaborators, err := s.collabs.ListCollaborators(ctx, repo.Owner, repo.Name)
	if err != nil {
		return repoScan{warnings: []domain.ScanWarning{{Source: repo.FullName, Message: err.Error()}}}
	}

	var result repoScan
	for _, login := range collaborators {
		if !targets[strings.ToLower(login)] {
			continue
		}

		permission, err := s.perms.ResolvePermission(ctx, repo.Owner, repo.Name, login)
		if err != nil {
			result.warnings = append(result.warnings, domain.ScanWarning{Source: repo.FullName, Message: err.Error()})
			continue
		}

		result.records = append(result.records, domain.AccessRecord{
			Repository: repo,
			Username:   login,
			Permission: permission,
		})
	}

	return result
}

func dedupeRepositories(repos []domain.RepositoryRef) []domain.RepositoryRef {
	seen := make(map[string]bool, len(repos))
	deduped := repos[:0]
	for _, repo := range repos {
		if seen[repo.FullName] {
			continue
		}
		seen[repo.FullName] = true
		deduped = append(deduped, repo)
	}
	return deduped
}
