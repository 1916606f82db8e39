package model

import "encoding/json"

// wireFinding is the flat backend shape of a Finding.
type wireFinding struct {
	RuleID             string `json:"ruleId"`
	RuleName           string `json:"ruleName,omitempty"`
	RuleDescription    string `json:"ruleDescription,omitempty"`
	Line               int    `json:"line"`
	LineIndex          int    `json:"lineIndex"`
	Length             int    `json:"length"`
	MatchedString      string `json:"matchedString,omitempty"`
	MatchedBodyHash    string `json:"matchedBodyHash,omitempty"`
	MatchedBodyHashAlg string `json:"matchedBodyHashAlg,omitempty"`
	Classification     string `json:"classification,omitempty"`
	Severity           int    `json:"severity"`
}

type wireRecord struct {
	ID               string        `json:"id"`
	AgentID          string        `json:"agentId,omitempty"`
	RemoteIP         string        `json:"remoteIp,omitempty"`
	Timestamp        int64         `json:"timestamp"`
	Type             ProtocolKind  `json:"type"`
	Request          string        `json:"request,omitempty"`
	Response         string        `json:"response,omitempty"`
	RequestFindings  []wireFinding `json:"requestFindings"`
	ResponseFindings []wireFinding `json:"responseFindings"`
	Verdict          string        `json:"verdict,omitempty"`
	StreamID         string        `json:"streamUuid,omitempty"`
	StreamIndex      int64         `json:"streamIndex,omitempty"`

	HTTPMethod          string    `json:"httpMethod,omitempty"`
	HTTPRequestURL      string    `json:"httpRequestURL,omitempty"`
	HTTPRequestVersion  string    `json:"httpRequestVersion,omitempty"`
	HTTPResponseVersion string    `json:"httpResponseVersion,omitempty"`
	HTTPResponseCode    string    `json:"httpResponseCode,omitempty"`
	Direction           Direction `json:"direction,omitempty"`
}

func toWireFindings(in []Finding) []wireFinding {
	out := make([]wireFinding, 0, len(in))
	for _, f := range in {
		out = append(out, wireFinding{
			RuleID:             f.RuleID,
			RuleName:           f.RuleName,
			RuleDescription:    f.RuleDescription,
			Line:               f.Position.Line,
			LineIndex:          f.Position.ColumnIndex,
			Length:             f.Position.Length,
			MatchedString:      f.MatchedString,
			MatchedBodyHash:    f.MatchedBodyHash,
			MatchedBodyHashAlg: f.MatchedBodyHashAlg,
			Classification:     f.Classification,
			Severity:           f.Severity,
		})
	}
	return out
}

// MarshalJSON writes the flat backend shape, so Decoder reads it back.
func (f Finding) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWireFindings([]Finding{f})[0])
}

// MarshalJSON writes the flat backend shape, so Decoder reads it back.
func (r LogRecord) MarshalJSON() ([]byte, error) {
	w := wireRecord{
		ID:               r.ID,
		AgentID:          r.AgentID,
		RemoteIP:         r.RemoteIP,
		Timestamp:        r.Timestamp,
		Type:             r.Kind(),
		Request:          r.Request,
		Response:         r.Response,
		RequestFindings:  toWireFindings(r.RequestFindings),
		ResponseFindings: toWireFindings(r.ResponseFindings),
		Verdict:          r.Verdict,
		StreamID:         r.StreamID,
		StreamIndex:      r.StreamIndex,
	}
	if h, ok := r.HTTP(); ok {
		w.HTTPMethod = h.Method
		w.HTTPRequestURL = h.RequestURL
		w.HTTPRequestVersion = h.RequestVersion
		w.HTTPResponseVersion = h.ResponseVersion
		w.HTTPResponseCode = h.ResponseCode
	}
	if t, ok := r.Transport(); ok {
		w.Direction = t.Direction
	}
	return json.Marshal(w)
}
