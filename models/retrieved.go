package models

// RetrievedImposter is a snapshot of a live imposter as reported by the
// remote service, including its request log and hit count. It is decoded
// from a single response and not meant to be modified or resubmitted.
type RetrievedImposter[R RecordedRequest] struct {
	Protocol         Protocol    `json:"protocol"`
	Port             int         `json:"port"`
	Name             string      `json:"name,omitempty"`
	RecordRequests   bool        `json:"recordRequests,omitempty"`
	NumberOfRequests int         `json:"numberOfRequests"`
	AllowCORS        bool        `json:"allowCORS,omitempty"`
	Key              string      `json:"key,omitempty"`
	Cert             string      `json:"cert,omitempty"`
	MutualAuth       bool        `json:"mutualAuth,omitempty"`
	Mode             TCPMode     `json:"mode,omitempty"`
	DefaultResponse  *IsResponse `json:"defaultResponse,omitempty"`
	Stubs            []*Stub     `json:"stubs,omitempty"`
	Requests         []R         `json:"requests,omitempty"`
}

type (
	RetrievedHTTPImposter  = RetrievedImposter[HTTPRequest]
	RetrievedHTTPSImposter = RetrievedImposter[HTTPRequest]
	RetrievedTCPImposter   = RetrievedImposter[TCPRequest]
	RetrievedSMTPImposter  = RetrievedImposter[SMTPRequest]
)

// Filter returns the recorded requests for which match reports true.
func (r *RetrievedImposter[R]) Filter(match func(R) bool) []R {
	var out []R
	for _, req := range r.Requests {
		if match(req) {
			out = append(out, req)
		}
	}
	return out
}
