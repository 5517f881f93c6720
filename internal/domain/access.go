package domain

// PermissionLevel represents the access tier granted to a collaborator
type PermissionLevel string

const (
	PermissionAdmin    PermissionLevel = "admin"
	PermissionMaintain PermissionLevel = "maintain"
	PermissionWrite    PermissionLevel = "write"
	PermissionTriage   PermissionLevel = "triage"
	PermissionRead     PermissionLevel = "read"
	PermissionUnknown  PermissionLevel = "unknown"
)

// ParsePermissionLevel normalizes a permission string from the GitHub API.
// The permission endpoint reports "push" and "pull" for write and read access.
func ParsePermissionLevel(s string) PermissionLevel {
	switch s {
	case "admin":
		return PermissionAdmin
	case "maintain":
		return PermissionMaintain
	case "write", "push":
		return PermissionWrite
	case "triage":
		return PermissionTriage
	case "read", "pull":
		return PermissionRead
	default:
		return PermissionUnknown
	}
}

// RepositoryRef identifies a repository
type RepositoryRef struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// AccessRecord represents one observed collaborator grant, eligible for removal
type AccessRecord struct {
	Repository RepositoryRef   `json:"repository"`
	Username   string          `json:"username"`
	Permission PermissionLevel `json:"permission"`
}
