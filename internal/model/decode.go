package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

// Decoder turns backend JSON into records.
// The zero value is strict: the first record that cannot be decoded or
// fails Validate ends the decode with a *ValidationError.
type Decoder struct {
	// Lenient skips undecodable records and keeps records that fail
	// validation, logging each at warn level.
	Lenient bool
	Logger  *zap.Logger

	parser fastjson.ParserPool
}

func (d *Decoder) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// DecodeRecords accepts a JSON array of records or a single record object.
func (d *Decoder) DecodeRecords(data []byte) ([]LogRecord, error) {
	p := d.parser.Get()
	defer d.parser.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}

	var values []*fastjson.Value
	switch v.Type() {
	case fastjson.TypeArray:
		values, _ = v.Array()
	case fastjson.TypeObject:
		values = []*fastjson.Value{v}
	case fastjson.TypeNull:
		return []LogRecord{}, nil
	default:
		return nil, fmt.Errorf("parse records: unexpected JSON %s", v.Type())
	}

	records := make([]LogRecord, 0, len(values))
	for i, val := range values {
		rec, err := d.decodeRecord(val)
		if err != nil {
			if !d.Lenient {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			d.logger().Warn("dropping malformed record", zap.Int("index", i), zap.Error(err))
			continue
		}
		if err := rec.Validate(); err != nil {
			if !d.Lenient {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			d.logger().Warn("keeping record that failed validation", zap.String("id", rec.ID), zap.Error(err))
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeRecord decodes exactly one record object.
func (d *Decoder) DecodeRecord(data []byte) (LogRecord, error) {
	p := d.parser.Get()
	defer d.parser.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return LogRecord{}, fmt.Errorf("parse record: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return LogRecord{}, fmt.Errorf("parse record: expected object, got %s", v.Type())
	}
	rec, err := d.decodeRecord(v)
	if err != nil {
		return LogRecord{}, err
	}
	if err := rec.Validate(); err != nil {
		if !d.Lenient {
			return LogRecord{}, err
		}
		d.logger().Warn("keeping record that failed validation", zap.String("id", rec.ID), zap.Error(err))
	}
	return rec, nil
}

func (d *Decoder) decodeRecord(v *fastjson.Value) (LogRecord, error) {
	ts, err := intField(v, "timestamp")
	if err != nil {
		return LogRecord{}, err
	}
	streamIdx, err := intField(v, "streamIndex")
	if err != nil {
		return LogRecord{}, err
	}

	base := LogRecord{
		ID:          stringField(v, "id"),
		AgentID:     stringField(v, "agentId"),
		RemoteIP:    stringField(v, "remoteIp"),
		Timestamp:   ts,
		Request:     stringField(v, "request"),
		Response:    stringField(v, "response"),
		Verdict:     stringField(v, "verdict"),
		StreamID:    firstNonEmpty(stringField(v, "streamUuid"), stringField(v, "streamUUID"), stringField(v, "streamId")),
		StreamIndex: streamIdx,
	}

	if base.RequestFindings, err = d.decodeFindings(v.Get("requestFindings")); err != nil {
		return LogRecord{}, fmt.Errorf("requestFindings: %w", err)
	}
	if base.ResponseFindings, err = d.decodeFindings(v.Get("responseFindings")); err != nil {
		return LogRecord{}, fmt.Errorf("responseFindings: %w", err)
	}

	kind, err := ParseProtocolKind(stringField(v, "type"))
	if err != nil {
		return LogRecord{}, err
	}

	switch kind {
	case KindHTTP:
		return NewHTTPRecord(base, decodeHTTPFields(v, base)), nil
	case KindTCP, KindUDP:
		dir := Direction(stringField(v, "direction"))
		if dir == "" {
			dir = inferDirection(base)
		}
		return NewTransportRecord(base, TransportFields{Transport: kind, Direction: dir})
	default:
		return NewWebSocketRecord(base), nil
	}
}

// decodeHTTPFields prefers the fields extracted by the backend and falls back
// to the start lines of the raw request and response.
func decodeHTTPFields(v *fastjson.Value, base LogRecord) HTTPFields {
	h := HTTPFields{
		Method:          stringField(v, "httpMethod"),
		RequestURL:      stringField(v, "httpRequestURL"),
		RequestVersion:  stringField(v, "httpRequestVersion"),
		ResponseVersion: stringField(v, "httpResponseVersion"),
		ResponseCode:    stringField(v, "httpResponseCode"),
	}
	if h.Method == "" && base.Request != "" {
		h.Method, h.RequestURL, h.RequestVersion = ParseRequestLine(base.Request)
	}
	if h.ResponseVersion == "" && base.Response != "" {
		h.ResponseVersion, h.ResponseCode = ParseStatusLine(base.Response)
	}
	return h
}

func inferDirection(r LogRecord) Direction {
	switch {
	case r.Request != "":
		return DirectionIngress
	case r.Response != "":
		return DirectionEgress
	}
	return ""
}

func (d *Decoder) decodeFindings(v *fastjson.Value) ([]Finding, error) {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil, nil
	}
	arr, err := v.Array()
	if err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, nil
	}
	out := make([]Finding, 0, len(arr))
	for _, fv := range arr {
		if fv.Type() == fastjson.TypeNull {
			continue
		}
		f, err := decodeFinding(fv)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func decodeFinding(v *fastjson.Value) (Finding, error) {
	line, err := intField(v, "line")
	if err != nil {
		return Finding{}, err
	}
	col, err := intField(v, "lineIndex")
	if err != nil {
		return Finding{}, err
	}
	length, err := intField(v, "length")
	if err != nil {
		return Finding{}, err
	}
	severity, err := intField(v, "severity")
	if err != nil {
		return Finding{}, err
	}
	return Finding{
		RuleID:             stringField(v, "ruleId"),
		RuleName:           stringField(v, "ruleName"),
		RuleDescription:    stringField(v, "ruleDescription"),
		Position:           Position{Line: int(line), ColumnIndex: int(col), Length: int(length)},
		MatchedString:      stringField(v, "matchedString"),
		MatchedBodyHash:    stringField(v, "matchedBodyHash"),
		MatchedBodyHashAlg: stringField(v, "matchedBodyHashAlg"),
		Classification:     stringField(v, "classification"),
		Severity:           int(severity),
	}, nil
}

// DecodeMethodStatistics parses the backend methods-stats object.
func (d *Decoder) DecodeMethodStatistics(data []byte) (MethodStatistics, error) {
	p := d.parser.Get()
	defer d.parser.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return MethodStatistics{}, fmt.Errorf("parse method statistics: %w", err)
	}
	var stats MethodStatistics
	for _, m := range Methods {
		n, err := intField(v, string(m))
		if err != nil {
			return MethodStatistics{}, err
		}
		if n < 0 {
			return MethodStatistics{}, fmt.Errorf("method statistics: negative count %d for %s", n, m)
		}
		stats.Add(m, n)
	}
	return stats, nil
}

// DecodeAgents parses the backend agents list.
func (d *Decoder) DecodeAgents(data []byte) ([]Agent, error) {
	p := d.parser.Get()
	defer d.parser.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse agents: %w", err)
	}
	if v.Type() == fastjson.TypeNull {
		return []Agent{}, nil
	}
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("parse agents: %w", err)
	}
	agents := make([]Agent, 0, len(arr))
	for _, av := range arr {
		collected, err := intField(av, "logsCollected")
		if err != nil {
			return nil, err
		}
		a := Agent{
			UUID:          stringField(av, "uuid"),
			Name:          stringField(av, "name"),
			LogsCollected: collected,
		}
		if created := stringField(av, "createdAt"); created != "" {
			if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
				a.CreatedAt = t
			}
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func stringField(v *fastjson.Value, key string) string {
	return string(v.GetStringBytes(key))
}

// intField reads a number or a numeric string. Older agents sent positions
// as strings; both forms decode to the same integer.
func intField(v *fastjson.Value, key string) (int64, error) {
	f := v.Get(key)
	if f == nil {
		return 0, nil
	}
	switch f.Type() {
	case fastjson.TypeNull:
		return 0, nil
	case fastjson.TypeNumber:
		if n, err := f.Int64(); err == nil {
			return n, nil
		}
		fl, err := f.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", key, err)
		}
		return int64(fl), nil
	case fastjson.TypeString:
		s := strings.TrimSpace(string(f.GetStringBytes()))
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %s: %q is not an integer", key, s)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("field %s: unexpected JSON %s", key, f.Type())
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
