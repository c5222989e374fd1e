package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/tidwall/gjson"
)

// RecordedRequest is the set of request log shapes a retrieved imposter can
// carry. The type argument selects the protocol family being retrieved.
type RecordedRequest interface {
	HTTPRequest | TCPRequest | SMTPRequest | RawRequest
}

// HTTPRequest is a request recorded by an http or https imposter.
type HTTPRequest struct {
	RequestFrom string         `json:"requestFrom,omitempty"`
	IP          string         `json:"ip,omitempty"`
	Method      string         `json:"method,omitempty"`
	Path        string         `json:"path,omitempty"`
	Query       map[string]any `json:"query,omitempty"`
	Headers     map[string]any `json:"headers,omitempty"`
	Body        any            `json:"body,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

// BodyText returns the recorded body as text, encoding structured bodies as JSON.
func (r HTTPRequest) BodyText() string {
	switch b := r.Body.(type) {
	case nil:
		return ""
	case string:
		return b
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return fmt.Sprint(b)
		}
		return string(encoded)
	}
}

// JSONBody looks up a gjson path in the recorded body.
func (r HTTPRequest) JSONBody(path string) gjson.Result {
	return gjson.Get(r.BodyText(), path)
}

// XMLBody evaluates an XPath expression against the recorded body and
// returns the inner text of the first matching node.
func (r HTTPRequest) XMLBody(expr string) (string, bool, error) {
	doc, err := xmlquery.Parse(strings.NewReader(r.BodyText()))
	if err != nil {
		return "", false, fmt.Errorf("failed to parse recorded body as XML: %w", err)
	}
	node, err := xmlquery.Query(doc, expr)
	if err != nil {
		return "", false, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	if node == nil {
		return "", false, nil
	}
	return node.InnerText(), true, nil
}

// TCPRequest is a request recorded by a tcp imposter.
type TCPRequest struct {
	RequestFrom string `json:"requestFrom,omitempty"`
	IP          string `json:"ip,omitempty"`
	Data        string `json:"data,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// SMTPRequest is a message recorded by an smtp imposter.
type SMTPRequest struct {
	RequestFrom  string   `json:"requestFrom,omitempty"`
	IP           string   `json:"ip,omitempty"`
	EnvelopeFrom string   `json:"envelopeFrom,omitempty"`
	EnvelopeTo   []string `json:"envelopeTo,omitempty"`
	From         any      `json:"from,omitempty"`
	To           []any    `json:"to,omitempty"`
	Cc           []any    `json:"cc,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	Text         string   `json:"text,omitempty"`
	HTML         string   `json:"html,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
}

// RawRequest keeps a recorded request undecoded, for callers that do not
// know the imposter's protocol in advance.
type RawRequest json.RawMessage

func (r RawRequest) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawRequest) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Decode unmarshals the raw request into v.
func (r RawRequest) Decode(v any) error {
	return json.Unmarshal(r, v)
}

// protocolFamily lists the protocols whose request log has shape R. A nil
// result accepts any protocol.
func protocolFamily[R RecordedRequest]() []Protocol {
	var zero R
	switch any(zero).(type) {
	case HTTPRequest:
		return []Protocol{ProtocolHTTP, ProtocolHTTPS}
	case TCPRequest:
		return []Protocol{ProtocolTCP}
	case SMTPRequest:
		return []Protocol{ProtocolSMTP}
	default:
		return nil
	}
}
