package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// imposterWire fixes the key order of a serialized imposter.
type imposterWire struct {
	Protocol        Protocol    `json:"protocol"`
	Port            int         `json:"port"`
	Name            string      `json:"name,omitempty"`
	RecordRequests  bool        `json:"recordRequests,omitempty"`
	AllowCORS       bool        `json:"allowCORS,omitempty"`
	Key             string      `json:"key,omitempty"`
	Cert            string      `json:"cert,omitempty"`
	MutualAuth      bool        `json:"mutualAuth,omitempty"`
	Mode            TCPMode     `json:"mode,omitempty"`
	DefaultResponse *IsResponse `json:"defaultResponse,omitempty"`
	Stubs           []*Stub     `json:"stubs,omitempty"`
}

// requiredWire detects missing or mistyped required keys before the full decode.
type requiredWire struct {
	Protocol *Protocol `json:"protocol"`
	Port     *int      `json:"port"`
}

// Serialize encodes an imposter into the payload accepted by POST /imposters.
func Serialize(imp *Imposter) ([]byte, error) {
	if imp == nil {
		return nil, fmt.Errorf("%w: nil imposter", ErrInvalidImposter)
	}
	return json.Marshal(imposterWire{
		Protocol:        imp.protocol,
		Port:            imp.port,
		Name:            imp.Name,
		RecordRequests:  imp.RecordRequests,
		AllowCORS:       imp.AllowCORS,
		Key:             imp.Key,
		Cert:            imp.Cert,
		MutualAuth:      imp.MutualAuth,
		Mode:            imp.Mode,
		DefaultResponse: imp.DefaultResponse,
		Stubs:           imp.Stubs,
	})
}

// Deserialize decodes an imposter snapshot returned by the remote service.
// Unknown keys are ignored. Missing or mistyped port/protocol, predicates or
// responses without a known discriminator, and a protocol outside R's family
// all yield a *MalformedResponseError.
func Deserialize[R RecordedRequest](data []byte) (*RetrievedImposter[R], error) {
	port, protocol, err := decodeRequired(data)
	if err != nil {
		return nil, err
	}
	if family := protocolFamily[R](); family != nil && !slices.Contains(family, protocol) {
		return nil, NewMalformedResponseError(fmt.Sprintf("protocol %q does not match the requested shape %v", protocol, family), nil)
	}

	var snapshot RetrievedImposter[R]
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, NewMalformedResponseError("imposter snapshot", err)
	}
	snapshot.Port = port
	snapshot.Protocol = protocol
	return &snapshot, nil
}

// ParseImposter decodes a creatable imposter definition, such as a file
// written by hand or a replayable export, and validates it.
func ParseImposter(data []byte) (*Imposter, error) {
	port, protocol, err := decodeRequired(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImposter, err)
	}

	var w imposterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImposter, err)
	}

	imp, err := NewImposter(protocol, port)
	if err != nil {
		return nil, err
	}
	imp.Name = w.Name
	imp.RecordRequests = w.RecordRequests
	imp.AllowCORS = w.AllowCORS
	imp.Key = w.Key
	imp.Cert = w.Cert
	imp.MutualAuth = w.MutualAuth
	imp.Mode = w.Mode
	imp.DefaultResponse = w.DefaultResponse
	imp.Stubs = w.Stubs
	if err := imp.Validate(); err != nil {
		return nil, err
	}
	return imp, nil
}

// DeserializeSummaries decodes the body of GET /imposters.
func DeserializeSummaries(data []byte) ([]ImposterSummary, error) {
	var list struct {
		Imposters *[]ImposterSummary `json:"imposters"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, NewMalformedResponseError("imposter list", err)
	}
	if list.Imposters == nil {
		return nil, NewMalformedResponseError("imposter list has no imposters key", nil)
	}
	return *list.Imposters, nil
}

func decodeRequired(data []byte) (int, Protocol, error) {
	var req requiredWire
	if err := json.Unmarshal(data, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return 0, "", NewMalformedResponseError(fmt.Sprintf("field %q has the wrong type", typeErr.Field), err)
		}
		return 0, "", NewMalformedResponseError("body is not a JSON object", err)
	}
	if req.Port == nil {
		return 0, "", NewMalformedResponseError("missing required field \"port\"", nil)
	}
	if req.Protocol == nil || *req.Protocol == "" {
		return 0, "", NewMalformedResponseError("missing required field \"protocol\"", nil)
	}
	return *req.Port, *req.Protocol, nil
}
