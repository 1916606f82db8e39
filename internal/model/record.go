package model

import "fmt"

// ProtocolKind is the captured traffic type.
type ProtocolKind string

const (
	KindHTTP      ProtocolKind = "http"
	KindWebSocket ProtocolKind = "websocket"
	KindTCP       ProtocolKind = "tcp"
	KindUDP       ProtocolKind = "udp"
)

// ParseProtocolKind maps a wire string to a known kind.
func ParseProtocolKind(s string) (ProtocolKind, error) {
	switch k := ProtocolKind(s); k {
	case KindHTTP, KindWebSocket, KindTCP, KindUDP:
		return k, nil
	}
	return "", newValidationError("type", fmt.Sprintf("unknown protocol kind %q", s), ErrUnknownProtocol)
}

// Direction of a transport segment relative to the protected server.
type Direction string

const (
	DirectionIngress Direction = "ingress" // client to server
	DirectionEgress  Direction = "egress"  // server to client
)

// Protocol is the protocol-specific part of a LogRecord.
// Only HTTPFields, TransportFields and WebSocketFields implement it.
type Protocol interface {
	Kind() ProtocolKind
	protocol()
}

// HTTPFields are extracted from the request and response start lines.
type HTTPFields struct {
	Method          string
	RequestURL      string
	RequestVersion  string
	ResponseVersion string
	ResponseCode    string
}

func (HTTPFields) Kind() ProtocolKind { return KindHTTP }
func (HTTPFields) protocol()          {}

// TransportFields describe a raw tcp or udp segment.
type TransportFields struct {
	Transport ProtocolKind // KindTCP or KindUDP
	Direction Direction
}

func (t TransportFields) Kind() ProtocolKind { return t.Transport }
func (TransportFields) protocol()            {}

// WebSocketFields carries no extra data yet.
type WebSocketFields struct{}

func (WebSocketFields) Kind() ProtocolKind { return KindWebSocket }
func (WebSocketFields) protocol()          {}

// LogRecord is one captured exchange plus the findings attached to it.
// Build records with NewHTTPRecord, NewTransportRecord or NewWebSocketRecord
// so the protocol variant always matches the kind.
type LogRecord struct {
	ID               string
	AgentID          string
	RemoteIP         string
	Timestamp        int64 // unix seconds
	Request          string
	Response         string
	RequestFindings  []Finding
	ResponseFindings []Finding
	Verdict          string
	StreamID         string
	StreamIndex      int64

	proto Protocol
}

// NewHTTPRecord attaches HTTP fields to base.
func NewHTTPRecord(base LogRecord, fields HTTPFields) LogRecord {
	base.proto = fields
	return base
}

// NewTransportRecord attaches tcp/udp fields to base.
func NewTransportRecord(base LogRecord, fields TransportFields) (LogRecord, error) {
	if fields.Transport != KindTCP && fields.Transport != KindUDP {
		return LogRecord{}, newValidationError("type", fmt.Sprintf("%q is not a transport kind", fields.Transport), ErrUnknownProtocol)
	}
	base.proto = fields
	return base, nil
}

// NewWebSocketRecord marks base as a websocket message.
func NewWebSocketRecord(base LogRecord) LogRecord {
	base.proto = WebSocketFields{}
	return base
}

// RowID implements the table row contract.
func (r LogRecord) RowID() string { return r.ID }

// Kind returns the protocol kind, or "" for a record built without a variant.
func (r LogRecord) Kind() ProtocolKind {
	if r.proto == nil {
		return ""
	}
	return r.proto.Kind()
}

// Protocol returns the protocol variant.
func (r LogRecord) Protocol() Protocol { return r.proto }

// HTTP narrows the record to its HTTP fields.
func (r LogRecord) HTTP() (HTTPFields, bool) {
	h, ok := r.proto.(HTTPFields)
	return h, ok
}

// Transport narrows the record to its tcp/udp fields.
func (r LogRecord) Transport() (TransportFields, bool) {
	t, ok := r.proto.(TransportFields)
	return t, ok
}

// Findings returns request and response findings together.
func (r LogRecord) Findings() []Finding {
	out := make([]Finding, 0, len(r.RequestFindings)+len(r.ResponseFindings))
	out = append(out, r.RequestFindings...)
	return append(out, r.ResponseFindings...)
}

// Validate reports records missing the fields their kind requires.
func (r LogRecord) Validate() error {
	if r.proto == nil {
		return newValidationError("type", fmt.Sprintf("record %s has no protocol kind", r.ID), ErrUnknownProtocol)
	}
	switch p := r.proto.(type) {
	case HTTPFields:
		if p.Method == "" {
			return newValidationError("httpMethod", fmt.Sprintf("http record %s has no method", r.ID), ErrMissingProtocolField)
		}
	case TransportFields:
		if p.Direction == "" {
			return newValidationError("direction", fmt.Sprintf("%s record %s has no direction", p.Transport, r.ID), ErrMissingProtocolField)
		}
	}
	for _, f := range r.Findings() {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
