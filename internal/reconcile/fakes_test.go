package reconcile

import (
	"context"
	"sync"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// fakeGitHub implements every scanner/remover capability in memory.
// Collaborators and permissions are keyed by "owner/repo" full name,
// permissions and removal errors by "owner/repo#username".
type fakeGitHub struct {
	mu sync.Mutex

	personal    []domain.RepositoryRef
	personalErr error
	orgRepos    map[string][]domain.RepositoryRef
	orgErr      map[string]error
	orgList     []string
	orgListErr  error

	collaborators map[string][]string
	collabErr     map[string]error
	permissions   map[string]domain.PermissionLevel
	permErr       map[string]error
	removeErr     map[string]error

	collabCalls int
	removed     []string
}

func repoRef(owner, name string) domain.RepositoryRef {
	return domain.RepositoryRef{Owner: owner, Name: name, FullName: owner + "/" + name}
}

func (f *fakeGitHub) ListPersonalRepositories(context.Context) ([]domain.RepositoryRef, error) {
	if f.personalErr != nil {
		return nil, f.personalErr
	}
	return f.personal, nil
}

func (f *fakeGitHub) ListOrgRepositories(_ context.Context, org string) ([]domain.RepositoryRef, error) {
	if err := f.orgErr[org]; err != nil {
		return nil, err
	}
	return f.orgRepos[org], nil
}

func (f *fakeGitHub) ListOrganizations(context.Context) ([]string, error) {
	if f.orgListErr != nil {
		return nil, f.orgListErr
	}
	return f.orgList, nil
}

func (f *fakeGitHub) ListCollaborators(_ context.Context, owner, repo string) ([]string, error) {
	f.mu.Lock()
	f.collabCalls++
	f.mu.Unlock()

	key := owner + "/" + repo
	if err := f.collabErr[key]; err != nil {
		return nil, err
	}
	return f.collaborators[key], nil
}

func (f *fakeGitHub) ResolvePermission(_ context.Context, owner, repo, username string) (domain.PermissionLevel, error) {
	key := owner + "/" + repo + "#" + username
	if err := f.permErr[key]; err != nil {
		return domain.PermissionUnknown, err
	}
	if p, ok := f.permissions[key]; ok {
		return p, nil
	}
	return domain.PermissionRead, nil
}

func (f *fakeGitHub) RemoveCollaborator(_ context.Context, owner, repo, username string) error {
	key := owner + "/" + repo + "#" + username
	if err := f.removeErr[key]; err != nil {
		return err
	}
	f.mu.Lock()
	f.removed = append(f.removed, key)
	f.mu.Unlock()
	return nil
}

// snapshotRecorder collects every published progress snapshot
type snapshotRecorder struct {
	mu        sync.Mutex
	snapshots []domain.BatchProgress
}

func (r *snapshotRecorder) Publish(p domain.BatchProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, p)
}

func (r *snapshotRecorder) all() []domain.BatchProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.BatchProgress(nil), r.snapshots...)
}

func (r *snapshotRecorder) last() domain.BatchProgress {
	all := r.all()
	if len(all) == 0 {
		return domain.BatchProgress{}
	}
	return all[len(all)-1]
}
