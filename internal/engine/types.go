package engine

// Status is the outcome kind of a restack run
type Status string

const (
	// StatusSuccess means every planned branch was restacked
	StatusSuccess Status = "success"
	// StatusConflicts means the run paused on a conflicted branch
	StatusConflicts Status = "conflicts"
	// StatusFailed means the run stopped on an unexpected error
	StatusFailed Status = "failed"
)

// PreviewEntry describes one branch the restack plan will rebase. Commits is
// the number of commits the target has that the branch lacks, so the user can
// judge how far behind it is.
type PreviewEntry struct {
	Branch  string `json:"branch"`
	Onto    string `json:"onto"`
	Commits int    `json:"commits"`
	HasPR   bool   `json:"has_pr"`
}

// Preview is the side-effect-free restack plan. Calling Preview twice with no
// intervening mutation yields identical plans.
type Preview struct {
	ToRestack []PreviewEntry `json:"to_restack"`
	UpToDate  []string       `json:"up_to_date"`
}

// Conflict reports the branch and file paths a restack paused on
type Conflict struct {
	Branch string   `json:"branch"`
	Files  []string `json:"files"`
}

// HostFailure reports a base-update that failed after the local rebase
// succeeded. The branch is still up to date locally; the update can be
// retried manually.
type HostFailure struct {
	Branch   string `json:"branch"`
	PRNumber int    `json:"pr_number"`
	Message  string `json:"message"`
}

// Result is the structured outcome of Execute or Continue
type Result struct {
	Status       Status        `json:"status"`
	Restacked    []string      `json:"restacked"`
	Conflicts    []Conflict    `json:"conflicts,omitempty"`
	Error        string        `json:"error,omitempty"`
	HostFailures []HostFailure `json:"host_failures,omitempty"`
}

// WarningKind classifies a reconciliation warning
type WarningKind string

const (
	// WarnParentNotAncestor means the recorded parent is no longer an
	// ancestor; the branch was very likely rebased or reset outside the tool
	WarnParentNotAncestor WarningKind = "parent_not_ancestor"
	// WarnParentDeleted means the recorded parent branch no longer exists
	WarnParentDeleted WarningKind = "parent_deleted"
	// WarnExternallyModified means the live head differs from the recorded one
	WarnExternallyModified WarningKind = "externally_modified"
)

// Warning is one advisory finding from reconciliation
type Warning struct {
	Branch string      `json:"branch"`
	Kind   WarningKind `json:"kind"`
}

// Report is the reconciliation result. It is purely additive: metadata
// records are never deleted, only orphan status is set.
type Report struct {
	Orphaned []string  `json:"orphaned"`
	Warnings []Warning `json:"warnings"`
}
