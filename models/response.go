package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResponseKind is the discriminator of a stub response.
type ResponseKind string

const (
	ResponseKindIs     ResponseKind = "is"
	ResponseKindProxy  ResponseKind = "proxy"
	ResponseKindInject ResponseKind = "inject"
	ResponseKindFault  ResponseKind = "fault"
)

var responseKinds = []ResponseKind{ResponseKindIs, ResponseKindProxy, ResponseKindInject, ResponseKindFault}

// FaultKind names a connection-level failure the remote service can simulate.
type FaultKind string

const (
	FaultConnectionResetByPeer FaultKind = "CONNECTION_RESET_BY_PEER"
	FaultRandomDataThenClose   FaultKind = "RANDOM_DATA_THEN_CLOSE"
)

// ProxyMode controls when a proxy response records and replays.
type ProxyMode string

const (
	ProxyOnce        ProxyMode = "proxyOnce"
	ProxyAlways      ProxyMode = "proxyAlways"
	ProxyTransparent ProxyMode = "proxyTransparent"
)

// IsResponse is a canned response. HTTP imposters use StatusCode, Headers,
// Body and Mode; TCP imposters use Data.
type IsResponse struct {
	StatusCode int            `json:"statusCode,omitempty"`
	Headers    map[string]any `json:"headers,omitempty"`
	Body       any            `json:"body,omitempty"`
	Mode       string         `json:"_mode,omitempty"`
	Data       string         `json:"data,omitempty"`
}

// PredicateGenerator tells a recording proxy which request fields to turn
// into predicates of the stubs it saves.
type PredicateGenerator struct {
	Matches       map[string]any    `json:"matches,omitempty"`
	CaseSensitive *bool             `json:"caseSensitive,omitempty"`
	Except        string            `json:"except,omitempty"`
	XPath         *XPathSelector    `json:"xpath,omitempty"`
	JSONPath      *JSONPathSelector `json:"jsonpath,omitempty"`
	Inject        string            `json:"inject,omitempty"`
	Ignore        map[string]any    `json:"ignore,omitempty"`
}

// ProxyResponse forwards matching requests to another endpoint.
type ProxyResponse struct {
	To                  string               `json:"to" validate:"required,url"`
	Mode                ProxyMode            `json:"mode,omitempty" validate:"omitempty,oneof=proxyOnce proxyAlways proxyTransparent"`
	PredicateGenerators []PredicateGenerator `json:"predicateGenerators,omitempty"`
	AddWaitBehavior     bool                 `json:"addWaitBehavior,omitempty"`
	AddDecorateBehavior string               `json:"addDecorateBehavior,omitempty"`
	InjectHeaders       map[string]string    `json:"injectHeaders,omitempty"`
	Cert                string               `json:"cert,omitempty"`
	Key                 string               `json:"key,omitempty"`
}

// CopyUsing describes how a copy behavior extracts a value.
type CopyUsing struct {
	Method     string            `json:"method" validate:"oneof=regex xpath jsonpath"`
	Selector   string            `json:"selector" validate:"required"`
	Namespaces map[string]string `json:"ns,omitempty"`
	Options    map[string]any    `json:"options,omitempty"`
}

// CopyBehavior copies part of the request into the response, replacing the
// Into token wherever it appears.
type CopyBehavior struct {
	From  any       `json:"from" validate:"required"`
	Into  string    `json:"into" validate:"required"`
	Using CopyUsing `json:"using"`
}

// Behavior post-processes a response. Exactly one field should be set; use
// the constructors.
type Behavior struct {
	Wait           any           `json:"wait,omitempty"`
	Decorate       string        `json:"decorate,omitempty"`
	ShellTransform string        `json:"shellTransform,omitempty"`
	Copy           *CopyBehavior `json:"copy,omitempty"`
}

// WaitFor delays the response by d, at millisecond resolution.
func WaitFor(d time.Duration) Behavior { return Behavior{Wait: d.Milliseconds()} }

// WaitScript delays the response by the milliseconds a JavaScript function returns.
func WaitScript(script string) Behavior { return Behavior{Wait: script} }

// Decorate post-processes the response with a JavaScript function.
func Decorate(script string) Behavior { return Behavior{Decorate: script} }

// ShellTransform pipes the response through a shell command.
func ShellTransform(command string) Behavior { return Behavior{ShellTransform: command} }

// CopyFrom copies a request value into the response.
func CopyFrom(c CopyBehavior) Behavior { return Behavior{Copy: &c} }

// Response is one entry of a stub's ordered response list. Exactly one
// variant is active; build it with Is, Proxy, Inject or Fault.
type Response struct {
	kind      ResponseKind
	is        *IsResponse
	proxy     *ProxyResponse
	script    string
	fault     FaultKind
	repeat    int
	behaviors []Behavior
}

// Is returns a canned response.
func Is(is IsResponse) Response { return Response{kind: ResponseKindIs, is: &is} }

// Proxy returns a response that forwards to another endpoint.
func Proxy(proxy ProxyResponse) Response { return Response{kind: ResponseKindProxy, proxy: &proxy} }

// Inject returns a response produced by a JavaScript function run by the
// remote service. The script is passed through verbatim.
func Inject(script string) Response { return Response{kind: ResponseKindInject, script: script} }

// Fault returns a response that breaks the connection.
func Fault(kind FaultKind) Response { return Response{kind: ResponseKindFault, fault: kind} }

// WithRepeat returns a copy of r that is served n times before the stub moves on.
func (r Response) WithRepeat(n int) Response {
	r.repeat = n
	return r
}

// WithBehaviors returns a copy of r with behaviors appended.
func (r Response) WithBehaviors(behaviors ...Behavior) Response {
	r.behaviors = append(append([]Behavior(nil), r.behaviors...), behaviors...)
	return r
}

func (r Response) Kind() ResponseKind { return r.kind }

// IsPayload returns the canned response when r is an "is" response.
func (r Response) IsPayload() (IsResponse, bool) {
	if r.is == nil {
		return IsResponse{}, false
	}
	return *r.is, true
}

// ProxyPayload returns the proxy definition when r is a "proxy" response.
func (r Response) ProxyPayload() (ProxyResponse, bool) {
	if r.proxy == nil {
		return ProxyResponse{}, false
	}
	return *r.proxy, true
}

func (r Response) Script() string        { return r.script }
func (r Response) FaultKind() FaultKind  { return r.fault }
func (r Response) Repeat() int           { return r.repeat }
func (r Response) Behaviors() []Behavior { return append([]Behavior(nil), r.behaviors...) }

// Validate checks that exactly one well formed variant is set.
func (r Response) Validate() error {
	switch r.kind {
	case ResponseKindIs:
		if r.is == nil {
			return fmt.Errorf("%w: is response has no payload", ErrInvalidImposter)
		}
	case ResponseKindProxy:
		if r.proxy == nil {
			return fmt.Errorf("%w: proxy response has no payload", ErrInvalidImposter)
		}
		if err := validate.Struct(r.proxy); err != nil {
			return fmt.Errorf("%w: proxy response: %v", ErrInvalidImposter, err)
		}
	case ResponseKindInject:
		if r.script == "" {
			return fmt.Errorf("%w: inject response has an empty script", ErrInvalidImposter)
		}
	case ResponseKindFault:
		if err := validate.Var(string(r.fault), "oneof=CONNECTION_RESET_BY_PEER RANDOM_DATA_THEN_CLOSE"); err != nil {
			return fmt.Errorf("%w: fault %q: %v", ErrInvalidImposter, r.fault, err)
		}
	default:
		return fmt.Errorf("%w: unknown response kind %q", ErrInvalidImposter, r.kind)
	}
	if r.repeat < 0 {
		return fmt.Errorf("%w: negative repeat %d", ErrInvalidImposter, r.repeat)
	}
	for _, b := range r.behaviors {
		if b.Copy != nil {
			if err := validate.Struct(b.Copy); err != nil {
				return fmt.Errorf("%w: copy behavior: %v", ErrInvalidImposter, err)
			}
		}
	}
	return nil
}

type responseWire struct {
	Is        *IsResponse    `json:"is,omitempty"`
	Proxy     *ProxyResponse `json:"proxy,omitempty"`
	Inject    string         `json:"inject,omitempty"`
	Fault     FaultKind      `json:"fault,omitempty"`
	Repeat    int            `json:"repeat,omitempty"`
	Behaviors []Behavior     `json:"behaviors,omitempty"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	w := responseWire{Repeat: r.repeat, Behaviors: r.behaviors}
	switch r.kind {
	case ResponseKindIs:
		w.Is = r.is
		if w.Is == nil {
			w.Is = &IsResponse{}
		}
	case ResponseKindProxy:
		if r.proxy == nil {
			return nil, fmt.Errorf("%w: proxy response has no payload", ErrInvalidImposter)
		}
		w.Proxy = r.proxy
	case ResponseKindInject:
		if r.script == "" {
			return nil, fmt.Errorf("%w: inject response has an empty script", ErrInvalidImposter)
		}
		w.Inject = r.script
	case ResponseKindFault:
		if r.fault == "" {
			return nil, fmt.Errorf("%w: fault response has no kind", ErrInvalidImposter)
		}
		w.Fault = r.fault
	default:
		return nil, fmt.Errorf("%w: unknown response kind %q", ErrInvalidImposter, r.kind)
	}
	return json.Marshal(w)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(data, &node); err != nil {
		return NewMalformedResponseError("response is not an object", err)
	}

	var found []ResponseKind
	for _, kind := range responseKinds {
		if _, ok := node[string(kind)]; ok {
			found = append(found, kind)
		}
	}
	if len(found) != 1 {
		return NewMalformedResponseError(fmt.Sprintf("response must carry exactly one of is/proxy/inject/fault, found %d", len(found)), nil)
	}

	var w responseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return NewMalformedResponseError(fmt.Sprintf("%s response", found[0]), err)
	}

	decoded := Response{kind: found[0], repeat: w.Repeat, behaviors: w.Behaviors}
	switch decoded.kind {
	case ResponseKindIs:
		decoded.is = w.Is
		if decoded.is == nil {
			decoded.is = &IsResponse{}
		}
	case ResponseKindProxy:
		if w.Proxy == nil {
			return NewMalformedResponseError("proxy response without a definition", nil)
		}
		decoded.proxy = w.Proxy
	case ResponseKindInject:
		decoded.script = w.Inject
	case ResponseKindFault:
		decoded.fault = w.Fault
	}

	*r = decoded
	return nil
}
