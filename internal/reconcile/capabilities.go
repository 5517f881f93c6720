package reconcile

import (
	"context"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// RepositoryLister enumerates repositories for a scan scope
type RepositoryLister interface {
	// ListPersonalRepositories retrieves the authenticated user's own repositories
	ListPersonalRepositories(ctx context.Context) ([]domain.RepositoryRef, error)

	// ListOrgRepositories retrieves all repositories of an organization
	ListOrgRepositories(ctx context.Context, org string) ([]domain.RepositoryRef, error)

	// ListOrganizations retrieves the organizations accessible to the authenticated user
	ListOrganizations(ctx context.Context) ([]string, error)
}

// CollaboratorLister retrieves the direct collaborators of a repository
type CollaboratorLister interface {
	ListCollaborators(ctx context.Context, owner, repo string) ([]string, error)
}

// PermissionResolver resolves the permission level of a collaborator
type PermissionResolver interface {
	ResolvePermission(ctx context.Context, owner, repo, username string) (domain.PermissionLevel, error)
}

// CollaboratorRemover revokes a collaborator's direct repository access
type CollaboratorRemover interface {
	RemoveCollaborator(ctx context.Context, owner, repo, username string) error
}
