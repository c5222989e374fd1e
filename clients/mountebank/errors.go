package mountebank

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// StatusTransportFailure is the StatusCode of a MountebankError raised before
// any HTTP status was received.
const StatusTransportFailure = 0

// ServiceError is one entry of the error list mountebank returns on failure.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MountebankError reports an operation that did not get its expected status,
// or that never reached the service.
type MountebankError struct {
	Op         string
	StatusCode int
	Body       string
	Errors     []ServiceError
	Err        error
}

func (e *MountebankError) Error() string {
	if e.StatusCode == StatusTransportFailure {
		return fmt.Sprintf("mountebank: %s: %v", e.Op, e.Err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "mountebank: %s: unexpected status %d", e.Op, e.StatusCode)
	if len(e.Errors) > 0 {
		msgs := make([]string, 0, len(e.Errors))
		for _, se := range e.Errors {
			msgs = append(msgs, se.Code+": "+se.Message)
		}
		b.WriteString(": " + strings.Join(msgs, "; "))
	} else if e.Body != "" {
		b.WriteString(", body: " + e.Body)
	}
	return b.String()
}

func (e *MountebankError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a MountebankError carrying 404.
func IsNotFound(err error) bool {
	var mbErr *MountebankError
	return errors.As(err, &mbErr) && mbErr.StatusCode == http.StatusNotFound
}

func transportError(op string, err error) error {
	return &MountebankError{Op: op, StatusCode: StatusTransportFailure, Err: err}
}

func statusError(op string, status int, body []byte) error {
	return &MountebankError{
		Op:         op,
		StatusCode: status,
		Body:       string(body),
		Errors:     parseServiceErrors(body),
	}
}

func parseServiceErrors(body []byte) []ServiceError {
	if !gjson.ValidBytes(body) {
		return nil
	}
	var out []ServiceError
	gjson.GetBytes(body, "errors").ForEach(func(_, value gjson.Result) bool {
		out = append(out, ServiceError{
			Code:    value.Get("code").String(),
			Message: value.Get("message").String(),
		})
		return true
	})
	return out
}
