package git

import (
	"fmt"
	"regexp"
	"strings"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

// Git refs top out at 256 bytes; leave headroom for the refs/heads/ prefix
// and any remote-tracking decoration.
const maxBranchNameLen = 234

var (
	branchNameInvalidChars = regexp.MustCompile(`[^-_/.a-zA-Z0-9]+`)
	branchNameTrailing     = regexp.MustCompile(`[/.]+$`)
	branchNameHyphenRuns   = regexp.MustCompile(`-+`)
)

// SanitizeBranchName rewrites an arbitrary string into a name git will
// accept as a branch ref. Invalid characters collapse into single hyphens
// and trailing ref punctuation is stripped. The result may be empty when
// the input carries nothing usable.
func SanitizeBranchName(name string) string {
	name = branchNameTrailing.ReplaceAllString(name, "")
	name = branchNameInvalidChars.ReplaceAllString(name, "-")
	name = branchNameHyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) > maxBranchNameLen {
		name = name[:maxBranchNameLen]
		name = strings.TrimSuffix(name, "-")
	}

	return name
}

// ValidateBranchName rejects names that git would refuse or that sanitizing
// would silently change.
func ValidateBranchName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", graftonerrors.ErrInvalidBranchName)
	}
	if sanitized := SanitizeBranchName(name); sanitized != name {
		return fmt.Errorf("%w: %q (did you mean %q?)", graftonerrors.ErrInvalidBranchName, name, sanitized)
	}
	return nil
}
