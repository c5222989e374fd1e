package matchers

import (
	"errors"
	"fmt"

	"github.com/onsi/gomega/types"

	"mountebank-client/clients/mountebank"
)

type haveStatusCodeMatcher struct {
	code int
}

// HaveStatusCode succeeds when actual is an error wrapping a
// *mountebank.MountebankError with the given status code.
func HaveStatusCode(code int) types.GomegaMatcher {
	return &haveStatusCodeMatcher{code: code}
}

func (m *haveStatusCodeMatcher) Match(actual any) (bool, error) {
	if actual == nil {
		return false, nil
	}
	err, ok := actual.(error)
	if !ok {
		return false, fmt.Errorf("HaveStatusCode expects an error. Got: %T", actual)
	}
	var mbErr *mountebank.MountebankError
	if !errors.As(err, &mbErr) {
		return false, nil
	}
	return mbErr.StatusCode == m.code, nil
}

func (m *haveStatusCodeMatcher) FailureMessage(actual any) string {
	return fmt.Sprintf("Expected a mountebank error with status %d. Got:\n%v", m.code, actual)
}

func (m *haveStatusCodeMatcher) NegatedFailureMessage(actual any) string {
	return fmt.Sprintf("Expected no mountebank error with status %d. Got:\n%v", m.code, actual)
}
