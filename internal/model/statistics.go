package model

// Method is one of the HTTP methods tracked by the methods chart.
type Method string

const (
	MethodGET     Method = "GET"
	MethodHEAD    Method = "HEAD"
	MethodOPTIONS Method = "OPTIONS"
	MethodTRACE   Method = "TRACE"
	MethodPUT     Method = "PUT"
	MethodDELETE  Method = "DELETE"
	MethodPOST    Method = "POST"
	MethodPATCH   Method = "PATCH"
	MethodCONNECT Method = "CONNECT"
)

// Methods lists the tracked methods in chart order.
var Methods = []Method{
	MethodGET, MethodHEAD, MethodOPTIONS, MethodTRACE, MethodPUT,
	MethodDELETE, MethodPOST, MethodPATCH, MethodCONNECT,
}

// ParseMethod is a case-sensitive exact match against Methods.
func ParseMethod(s string) (Method, bool) {
	for _, m := range Methods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// MethodStatistics counts http records per method.
type MethodStatistics struct {
	GET     int64 `json:"GET"`
	HEAD    int64 `json:"HEAD"`
	OPTIONS int64 `json:"OPTIONS"`
	TRACE   int64 `json:"TRACE"`
	PUT     int64 `json:"PUT"`
	DELETE  int64 `json:"DELETE"`
	POST    int64 `json:"POST"`
	PATCH   int64 `json:"PATCH"`
	CONNECT int64 `json:"CONNECT"`
}

func (s *MethodStatistics) counter(m Method) *int64 {
	switch m {
	case MethodGET:
		return &s.GET
	case MethodHEAD:
		return &s.HEAD
	case MethodOPTIONS:
		return &s.OPTIONS
	case MethodTRACE:
		return &s.TRACE
	case MethodPUT:
		return &s.PUT
	case MethodDELETE:
		return &s.DELETE
	case MethodPOST:
		return &s.POST
	case MethodPATCH:
		return &s.PATCH
	case MethodCONNECT:
		return &s.CONNECT
	}
	return nil
}

// Add increments the bucket for m. Unknown methods are ignored.
func (s *MethodStatistics) Add(m Method, n int64) {
	if c := s.counter(m); c != nil {
		*c += n
	}
}

// Count returns the bucket for m.
func (s MethodStatistics) Count(m Method) int64 {
	if c := s.counter(m); c != nil {
		return *c
	}
	return 0
}

// Total sums all buckets.
func (s MethodStatistics) Total() int64 {
	var total int64
	for _, m := range Methods {
		total += s.Count(m)
	}
	return total
}

// MethodEntry is one point of the methods chart.
type MethodEntry struct {
	Method   Method `json:"method"`
	Requests int64  `json:"requests"`
}

// Entries returns chart data in the fixed method order.
func (s MethodStatistics) Entries() []MethodEntry {
	out := make([]MethodEntry, 0, len(Methods))
	for _, m := range Methods {
		out = append(out, MethodEntry{Method: m, Requests: s.Count(m)})
	}
	return out
}

// DirectionStatistics counts tcp/udp segments per direction.
type DirectionStatistics struct {
	Ingress int64 `json:"ingress"`
	Egress  int64 `json:"egress"`
}
