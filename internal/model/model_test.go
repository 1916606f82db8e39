package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindingValidate(t *testing.T) {
	ok := Finding{RuleID: "R", Position: Position{Line: 1, Length: 3}, MatchedString: "abc"}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name  string
		f     Finding
		field string
	}{
		{"negative line", Finding{Position: Position{Line: -1}}, "line"},
		{"negative length", Finding{Position: Position{Length: -2}}, "length"},
		{"length mismatch", Finding{Position: Position{Length: 2}, MatchedString: "abc"}, "matchedString"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPosition))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestTransportRecordRejectsHTTPKind(t *testing.T) {
	_, err := NewTransportRecord(LogRecord{ID: "x"}, TransportFields{Transport: KindHTTP, Direction: DirectionIngress})
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestRecordWithoutVariant(t *testing.T) {
	var r LogRecord
	assert.Equal(t, ProtocolKind(""), r.Kind())
	assert.ErrorIs(t, r.Validate(), ErrUnknownProtocol)
}

func TestFindingsOrder(t *testing.T) {
	r := NewWebSocketRecord(LogRecord{
		RequestFindings:  []Finding{{RuleID: "a"}},
		ResponseFindings: []Finding{{RuleID: "b"}, {RuleID: "c"}},
	})
	ids := []string{}
	for _, f := range r.Findings() {
		ids = append(ids, f.RuleID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestMethodStatistics(t *testing.T) {
	var s MethodStatistics
	s.Add(MethodGET, 2)
	s.Add(MethodCONNECT, 1)
	s.Add(Method("get"), 10)

	assert.Equal(t, int64(3), s.Total())
	entries := s.Entries()
	require.Len(t, entries, len(Methods))
	assert.Equal(t, MethodEntry{Method: MethodGET, Requests: 2}, entries[0])
	assert.Equal(t, MethodEntry{Method: MethodCONNECT, Requests: 1}, entries[len(entries)-1])

	_, ok := ParseMethod("post")
	assert.False(t, ok)
}

func TestSeverityName(t *testing.T) {
	assert.Equal(t, "critical", SeverityName(SeverityCritical))
	assert.Equal(t, "unknown", SeverityName(7))
}
