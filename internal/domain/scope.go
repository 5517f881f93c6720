package domain

// ScopeKind identifies which repository enumeration scope is active
type ScopeKind string

const (
	ScopePersonalOnly ScopeKind = "personal"
	ScopeSingleOrg    ScopeKind = "single_org"
	ScopeMultiOrg     ScopeKind = "multi_org"
	ScopeEverything   ScopeKind = "everything"
)

// ScopeSelector describes the set of repositories considered for a scan.
// Exactly one variant is active; Orgs is consulted only for the org scopes.
type ScopeSelector struct {
	Kind ScopeKind `json:"kind"`
	Orgs []string  `json:"orgs,omitempty"`
}

// PersonalScope selects the authenticated user's own repositories
func PersonalScope() ScopeSelector {
	return ScopeSelector{Kind: ScopePersonalOnly}
}

// SingleOrgScope selects one organization's repositories
func SingleOrgScope(org string) ScopeSelector {
	return ScopeSelector{Kind: ScopeSingleOrg, Orgs: []string{org}}
}

// MultiOrgScope selects the repositories of several organizations
func MultiOrgScope(orgs []string) ScopeSelector {
	return ScopeSelector{Kind: ScopeMultiOrg, Orgs: orgs}
}

// EverythingScope selects personal repositories plus every accessible organization
func EverythingScope() ScopeSelector {
	return ScopeSelector{Kind: ScopeEverything}
}

// Validate checks that the selector has a usable variant
func (s ScopeSelector) Validate() error {
	switch s.Kind {
	case ScopePersonalOnly, ScopeEverything:
		return nil
	case ScopeSingleOrg:
		if len(s.Orgs) != 1 || s.Orgs[0] == "" {
			return &ScopeError{Message: "single-org scope requires exactly one organization"}
		}
		return nil
	case ScopeMultiOrg:
		if len(s.Orgs) == 0 {
			return &ScopeError{Message: "multi-org scope requires at least one organization"}
		}
		for _, org := range s.Orgs {
			if org == "" {
				return &ScopeError{Message: "multi-org scope contains an empty organization name"}
			}
		}
		return nil
	default:
		return &ScopeError{Message: "unknown scope kind: " + string(s.Kind)}
	}
}

// ScopeError reports an unusable scope selector. It is fatal to a run.
type ScopeError struct {
	Message string
}

func (e *ScopeError) Error() string {
	return "invalid scope: " + e.Message
}
