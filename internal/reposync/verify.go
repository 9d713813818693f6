package reposync

import (
	"errors"
	"fmt"

	"github.com/open-edge-platform/rpm-repotools/internal/utils/pkg/rpmutils"
)

// VerifyError carries a failed verdict through the fetcher.
type VerifyError struct {
	Verdict rpmutils.Verdict
}

func (e *VerifyError) Error() string {
	if e.Verdict.Message == "" {
		return e.Verdict.Status.String()
	}
	return e.Verdict.Status.String() + ": " + e.Verdict.Message
}

func verifyFunc(v rpmutils.Verifier) func(string) error {
	return func(path string) error {
		verdict := v.Verify(path)
		if verdict.OK() {
			return nil
		}
		return &VerifyError{Verdict: verdict}
	}
}

func removalMessage(name string, err error) string {
	var verr *VerifyError
	if !errors.As(err, &verr) {
		return fmt.Sprintf("Removing %s due to failed signature check: %v", name, err)
	}
	switch verr.Verdict.Status {
	case rpmutils.MissingKey:
		return fmt.Sprintf("Removing %s, due to missing GPG key.", name)
	case rpmutils.SignatureMismatch:
		return fmt.Sprintf("Removing %s due to failed signature check.", name)
	default:
		return fmt.Sprintf("Removing %s due to failed signature check: %s", name, verr.Verdict.Message)
	}
}
