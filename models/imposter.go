package models

import "fmt"

// Imposter describes a simulated endpoint hosted by the remote service.
// Port and protocol are fixed at construction; everything else is optional
// and omitted from the wire payload unless set.
type Imposter struct {
	port     int
	protocol Protocol

	Name            string
	RecordRequests  bool
	AllowCORS       bool
	DefaultResponse *IsResponse

	// HTTPS only.
	Key        string
	Cert       string
	MutualAuth bool

	// TCP only.
	Mode TCPMode

	Stubs []*Stub
}

// NewImposter validates port and protocol and returns an imposter with no stubs.
func NewImposter(protocol Protocol, port int) (*Imposter, error) {
	if err := validatePortAndProtocol(port, protocol); err != nil {
		return nil, err
	}
	return &Imposter{port: port, protocol: protocol}, nil
}

func NewHTTPImposter(port int) (*Imposter, error)  { return NewImposter(ProtocolHTTP, port) }
func NewHTTPSImposter(port int) (*Imposter, error) { return NewImposter(ProtocolHTTPS, port) }
func NewTCPImposter(port int) (*Imposter, error)   { return NewImposter(ProtocolTCP, port) }
func NewSMTPImposter(port int) (*Imposter, error)  { return NewImposter(ProtocolSMTP, port) }

func (i *Imposter) Port() int          { return i.port }
func (i *Imposter) Protocol() Protocol { return i.protocol }

// AddStub appends a new empty stub and returns it for chaining.
func (i *Imposter) AddStub() *Stub {
	s := NewStub()
	i.Stubs = append(i.Stubs, s)
	return s
}

// Validate checks the rules the remote service enforces on submission.
func (i *Imposter) Validate() error {
	if err := validatePortAndProtocol(i.port, i.protocol); err != nil {
		return err
	}
	if i.Mode != "" {
		if i.protocol != ProtocolTCP {
			return fmt.Errorf("%w: mode is only valid for tcp imposters", ErrInvalidImposter)
		}
		if err := validate.Var(string(i.Mode), "oneof=text binary"); err != nil {
			return fmt.Errorf("%w: tcp mode %q: %v", ErrInvalidImposter, i.Mode, err)
		}
	}
	if (i.Key != "" || i.Cert != "" || i.MutualAuth) && i.protocol != ProtocolHTTPS {
		return fmt.Errorf("%w: key, cert and mutualAuth are only valid for https imposters", ErrInvalidImposter)
	}
	for n, stub := range i.Stubs {
		if err := stub.Validate(); err != nil {
			return fmt.Errorf("stub %d: %w", n, err)
		}
	}
	return nil
}

// MarshalJSON encodes the imposter with Serialize.
func (i *Imposter) MarshalJSON() ([]byte, error) {
	return Serialize(i)
}

// ImposterSummary is one entry of the imposter list.
type ImposterSummary struct {
	Protocol Protocol `json:"protocol"`
	Port     int      `json:"port"`
	Name     string   `json:"name,omitempty"`
}
