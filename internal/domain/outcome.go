package domain

// ScanWarning records a suppressed per-source failure during a scan:
// an organization whose listing failed, or a repository whose collaborator
// or permission lookup failed. Warnings never abort a run.
type ScanWarning struct {
	Source  string `json:"source"` // org name or "owner/repo"
	Message string `json:"message"`
}

// ScanResult is the output of one scanner run
type ScanResult struct {
	Records  []AccessRecord `json:"records"`
	Warnings []ScanWarning  `json:"warnings,omitempty"`
}

// RemovalOutcome is the result of one removal attempt
type RemovalOutcome struct {
	Record  AccessRecord `json:"record"`
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
}

// RemovalFailure pairs a failed record with its error message
type RemovalFailure struct {
	Record AccessRecord `json:"record"`
	Error  string       `json:"error"`
}

// RemovalSummary is the aggregate result of one remover run.
// Outcomes are in the same order as the input records.
type RemovalSummary struct {
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
	Failures     []RemovalFailure `json:"failures,omitempty"`
	Outcomes     []RemovalOutcome `json:"outcomes,omitempty"`
}

// PartialFailure reports whether the run succeeded for some records and failed
// for others.
func (s *RemovalSummary) PartialFailure() bool {
	return s.SuccessCount > 0 && s.FailureCount > 0
}
