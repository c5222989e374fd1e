package models

import (
	"fmt"
	"net/http"
)

// Stub pairs an ordered list of predicates, all of which must match, with
// an ordered list of responses served to consecutive matching requests.
// An empty predicate list matches every request.
type Stub struct {
	Predicates []Predicate `json:"predicates,omitempty"`
	Responses  []Response  `json:"responses,omitempty"`
}

// Validate checks that s has at least one response and that every
// predicate and response is well formed.
func (s *Stub) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil stub", ErrInvalidImposter)
	}
	if len(s.Responses) == 0 {
		return fmt.Errorf("%w: stub has no responses", ErrInvalidImposter)
	}
	for _, p := range s.Predicates {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, r := range s.Responses {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NewStub returns an empty stub.
func NewStub() *Stub { return &Stub{} }

// On appends predicates.
func (s *Stub) On(predicates ...Predicate) *Stub {
	s.Predicates = append(s.Predicates, predicates...)
	return s
}

// Returns appends responses.
func (s *Stub) Returns(responses ...Response) *Stub {
	s.Responses = append(s.Responses, responses...)
	return s
}

// OnPathEquals matches requests whose path equals path.
func (s *Stub) OnPathEquals(path string) *Stub {
	return s.On(Equals(Path(path)))
}

// OnMethodEquals matches requests whose method equals method.
func (s *Stub) OnMethodEquals(method string) *Stub {
	return s.On(Equals(Method(method)))
}

// OnPathAndMethodEqual matches requests on both path and method.
func (s *Stub) OnPathAndMethodEqual(path, method string) *Stub {
	return s.On(Equals(Path(path), Method(method)))
}

// ReturnsStatus responds with an empty body and statusCode.
func (s *Stub) ReturnsStatus(statusCode int) *Stub {
	return s.Returns(Is(IsResponse{StatusCode: statusCode}))
}

// ReturnsBody responds with statusCode and a text body.
func (s *Stub) ReturnsBody(statusCode int, body string) *Stub {
	return s.Returns(Is(IsResponse{StatusCode: statusCode, Body: body}))
}

// ReturnsJSON responds with statusCode and v encoded as a JSON body.
func (s *Stub) ReturnsJSON(statusCode int, v any) *Stub {
	return s.Returns(Is(IsResponse{
		StatusCode: statusCode,
		Headers:    map[string]any{"Content-Type": "application/json"},
		Body:       v,
	}))
}

// ReturnsData responds to a TCP request with data.
func (s *Stub) ReturnsData(data string) *Stub {
	return s.Returns(Is(IsResponse{Data: data}))
}

// ReturnsProxy forwards matching requests to another endpoint.
func (s *Stub) ReturnsProxy(to string, mode ProxyMode) *Stub {
	return s.Returns(Proxy(ProxyResponse{To: to, Mode: mode}))
}

// ReturnsNotFound is shorthand for ReturnsStatus(http.StatusNotFound).
func (s *Stub) ReturnsNotFound() *Stub {
	return s.ReturnsStatus(http.StatusNotFound)
}
