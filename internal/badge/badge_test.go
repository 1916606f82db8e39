package badge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coffersTech/nanoaudit/internal/model"
)

func findings(n int) []model.Finding {
	out := make([]model.Finding, n)
	for i := range out {
		out[i] = model.Finding{RuleID: fmt.Sprintf("R%d", i), Severity: i % 4}
	}
	return out
}

func TestBadgesFor(t *testing.T) {
	in := findings(5)
	got := BadgesFor(in, 3)
	assert.Equal(t, in[:3], got)

	got[0].RuleID = "changed"
	assert.Equal(t, "R0", in[0].RuleID)
}

func TestBadgesFor_Edges(t *testing.T) {
	tests := []struct {
		name  string
		in    []model.Finding
		limit int
		want  int
	}{
		{"nil input", nil, 3, 0},
		{"fewer than limit", findings(2), 3, 2},
		{"zero limit", findings(4), 0, 0},
		{"negative limit", findings(4), -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BadgesFor(tt.in, tt.limit)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestOverflow(t *testing.T) {
	assert.Equal(t, 2, Overflow(findings(5), 3))
	assert.Equal(t, 0, Overflow(findings(2), 3))
	assert.Equal(t, 4, Overflow(findings(4), 0))
}

func TestColorFor(t *testing.T) {
	tests := map[int]ColorToken{
		0:  Neutral,
		1:  Warning,
		2:  Elevated,
		3:  Critical,
		4:  Neutral,
		-1: Neutral,
	}
	for severity, want := range tests {
		assert.Equal(t, want, ColorFor(severity), "severity %d", severity)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "SQL-INJECTION", Label(model.Finding{Classification: "sql-injection"}))
	assert.Equal(t, "R9", Label(model.Finding{RuleID: "r9"}))
}
