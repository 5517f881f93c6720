package githubapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/gitsecureops/access-reconciler/internal/domain"
	apperrors "github.com/gitsecureops/access-reconciler/internal/errors"
)

// Service exposes the GitHub operations the reconciler and its surfaces need
type Service interface {
	// ListPersonalRepositories retrieves the authenticated user's own repositories
	ListPersonalRepositories(ctx context.Context) ([]domain.RepositoryRef, error)

	// ListOrgRepositories retrieves all repositories of an organization
	ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRef, error)

	// ListOrganizations retrieves the organizations accessible to the authenticated user
	ListOrganizations(ctx context.Context) ([]string, error)

	// ListCollaborators retrieves the direct collaborators of a repository
	ListCollaborators(ctx context.Context, owner, repo string) ([]string, error)

	// ResolvePermission resolves a collaborator's permission level
	ResolvePermission(ctx context.Context, owner, repo, username string) (domain.PermissionLevel, error)

	// RemoveCollaborator revokes a collaborator's direct repository access
	RemoveCollaborator(ctx context.Context, owner, repo, username string) error

	// AuthenticatedUser returns the login of the token's user
	AuthenticatedUser(ctx context.Context) (string, error)

	// TwoFactorAudit reports an organization's two-factor compliance
	TwoFactorAudit(ctx context.Context, org string) (*domain.TwoFactorReport, error)
}

// githubService implements Service using the GitHub REST API
type githubService struct {
	client      *github.Client
	rateLimiter RateLimiter
}

// NewService creates a new GitHub service for a personal access token
func NewService(token string) Service {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	return &githubService{
		client:      client,
		rateLimiter: NewRateLimiter(),
	}
}

// ListPersonalRepositories retrieves the repositories owned by the authenticated user
func (s *githubService) ListPersonalRepositories(ctx context.Context) ([]domain.RepositoryRef, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allRepos []domain.RepositoryRef
	opts := &github.RepositoryListOptions{
		Affiliation: "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		repos, resp, err := s.client.Repositories.List(ctx, "", opts)
		if err != nil {
			return nil, classifyError("failed to list personal repositories", resp, err)
		}

		s.updateRateLimitFromResponse(resp)

		for _, repo := range repos {
			allRepos = append(allRepos, domain.RepositoryRef{
				Owner:    repo.GetOwner().GetLogin(),
				Name:     repo.GetName(),
				FullName: repo.GetFullName(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allRepos, nil
}

// ListOrgRepositories retrieves all repositories of an organization
func (s *githubService) ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRef, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allRepos []domain.RepositoryRef
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		repos, resp, err := s.client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, classifyError(fmt.Sprintf("failed to list repositories for %s", org), resp, err)
		}

		s.updateRateLimitFromResponse(resp)

		for _, repo := range repos {
			allRepos = append(allRepos, domain.RepositoryRef{
				Owner:    org,
				Name:     repo.GetName(),
				FullName: repo.GetFullName(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allRepos, nil
}

// ListOrganizations retrieves the organizations of the authenticated user
func (s *githubService) ListOrganizations(ctx context.Context) ([]string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allOrgs []string
	opts := &github.ListOptions{PerPage: 100}

	for {
		orgs, resp, err := s.client.Organizations.List(ctx, "", opts)
		if err != nil {
			return nil, classifyError("failed to list organizations", resp, err)
		}

		s.updateRateLimitFromResponse(resp)

		for _, org := range orgs {
			allOrgs = append(allOrgs, org.GetLogin())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allOrgs, nil
}

// ListCollaborators retrieves the direct collaborators of a repository.
// Inherited org/team access is excluded so every returned login is removable.
func (s *githubService) ListCollaborators(ctx context.Context, owner, repo string) ([]string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var logins []string
	opts := &github.ListCollaboratorsOptions{
		Affiliation: "direct",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		collaborators, resp, err := s.client.Repositories.ListCollaborators(ctx, owner, repo, opts)
		if err != nil {
			return nil, classifyError(fmt.Sprintf("failed to list collaborators for %s/%s", owner, repo), resp, err)
		}

		s.updateRateLimitFromResponse(resp)

		for _, c := range collaborators {
			logins = append(logins, c.GetLogin())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return logins, nil
}

// ResolvePermission resolves a collaborator's permission level
func (s *githubService) ResolvePermission(ctx context.Context, owner, repo, username string) (domain.PermissionLevel, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return domain.PermissionUnknown, err
	}

	level, resp, err := s.client.Repositories.GetPermissionLevel(ctx, owner, repo, username)
	if err != nil {
		return domain.PermissionUnknown, classifyError(fmt.Sprintf("failed to resolve permission for %s on %s/%s", username, owner, repo), resp, err)
	}

	s.updateRateLimitFromResponse(resp)
	return domain.ParsePermissionLevel(level.GetPermission()), nil
}

// RemoveCollaborator revokes a collaborator's direct repository access
func (s *githubService) RemoveCollaborator(ctx context.Context, owner, repo, username string) error {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := s.client.Repositories.RemoveCollaborator(ctx, owner, repo, username)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			// Owners cannot be removed from their own repositories
			if username == owner {
				return apperrors.NewOwnerNotRemovableError(owner, repo)
			}
		}
		return classifyError(fmt.Sprintf("failed to remove %s from %s/%s", username, owner, repo), resp, err)
	}

	s.updateRateLimitFromResponse(resp)
	return nil
}

// AuthenticatedUser returns the login of the token's user
func (s *githubService) AuthenticatedUser(ctx context.Context) (string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	user, resp, err := s.client.Users.Get(ctx, "")
	if err != nil {
		return "", classifyError("failed to get authenticated user", resp, err)
	}

	s.updateRateLimitFromResponse(resp)
	return user.GetLogin(), nil
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (s *githubService) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining >= 0 {
		s.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}

// classifyError maps a GitHub API failure onto the application error taxonomy
func classifyError(message string, resp *github.Response, err error) error {
	if resp == nil {
		return apperrors.NewInternalError(message, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError(message)
	case http.StatusForbidden:
		if _, ok := err.(*github.RateLimitError); ok {
			return apperrors.NewRateLimitedError(message)
		}
		return apperrors.NewForbiddenError(message)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(message)
	case http.StatusTooManyRequests:
		return apperrors.NewRateLimitedError(message)
	default:
		return apperrors.NewInternalError(message, err)
	}
}
