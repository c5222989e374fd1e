package models

// Protocol identifies the network protocol an imposter listens with.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolTCP   Protocol = "tcp"
	ProtocolSMTP  Protocol = "smtp"
)

// TCPMode controls how a TCP imposter encodes request and response data.
type TCPMode string

const (
	TCPModeText   TCPMode = "text"
	TCPModeBinary TCPMode = "binary"
)

// ValidProtocols returns every protocol the remote service can host.
func ValidProtocols() []Protocol {
	return []Protocol{ProtocolHTTP, ProtocolHTTPS, ProtocolTCP, ProtocolSMTP}
}
