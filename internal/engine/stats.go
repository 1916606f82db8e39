package engine

import (
	"sort"

	"github.com/coffersTech/nanoaudit/internal/model"
)

// AggregateMethods counts http records per method. The match is
// case-sensitive and methods outside the fixed set are not counted.
func AggregateMethods(records []model.LogRecord) model.MethodStatistics {
	var stats model.MethodStatistics
	for _, r := range records {
		h, ok := r.HTTP()
		if !ok {
			continue
		}
		if m, ok := model.ParseMethod(h.Method); ok {
			stats.Add(m, 1)
		}
	}
	return stats
}

// AggregateDirections counts tcp and udp records per direction.
func AggregateDirections(records []model.LogRecord) model.DirectionStatistics {
	var stats model.DirectionStatistics
	for _, r := range records {
		t, ok := r.Transport()
		if !ok {
			continue
		}
		switch t.Direction {
		case model.DirectionIngress:
			stats.Ingress++
		case model.DirectionEgress:
			stats.Egress++
		}
	}
	return stats
}

// RuleCount is one entry of Summary.TopRules.
type RuleCount struct {
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
}

// Summary contains high-level metrics over one record collection.
type Summary struct {
	TotalRecords  int                        `json:"total_records"`
	TotalFindings int                        `json:"total_findings"`
	KindDist      map[model.ProtocolKind]int `json:"kind_dist"`     // e.g. "http": 100
	SeverityDist  map[string]int             `json:"severity_dist"` // e.g. "critical": 3
	VerdictDist   map[string]int             `json:"verdict_dist"`
	Agents        int                        `json:"agents"`
	TopRules      []RuleCount                `json:"top_rules"`
	MinTime       int64                      `json:"min_time"`
	MaxTime       int64                      `json:"max_time"`
}

// topRulesLimit caps Summary.TopRules.
const topRulesLimit = 10

// Summarize computes a Summary in one pass.
func Summarize(records []model.LogRecord) Summary {
	s := Summary{
		TotalRecords: len(records),
		KindDist:     make(map[model.ProtocolKind]int),
		SeverityDist: make(map[string]int),
		VerdictDist:  make(map[string]int),
	}
	agents := make(map[string]struct{})
	rules := make(map[string]int)

	for i, r := range records {
		s.KindDist[r.Kind()]++
		if r.Verdict != "" {
			s.VerdictDist[r.Verdict]++
		}
		if r.AgentID != "" {
			agents[r.AgentID] = struct{}{}
		}
		if i == 0 || r.Timestamp < s.MinTime {
			s.MinTime = r.Timestamp
		}
		if r.Timestamp > s.MaxTime {
			s.MaxTime = r.Timestamp
		}
		for _, f := range r.Findings() {
			s.TotalFindings++
			s.SeverityDist[model.SeverityName(f.Severity)]++
			rules[f.RuleID]++
		}
	}
	s.Agents = len(agents)

	s.TopRules = make([]RuleCount, 0, len(rules))
	for id, c := range rules {
		s.TopRules = append(s.TopRules, RuleCount{RuleID: id, Count: c})
	}
	sort.Slice(s.TopRules, func(i, j int) bool {
		if s.TopRules[i].Count != s.TopRules[j].Count {
			return s.TopRules[i].Count > s.TopRules[j].Count
		}
		return s.TopRules[i].RuleID < s.TopRules[j].RuleID
	})
	if len(s.TopRules) > topRulesLimit {
		s.TopRules = s.TopRules[:topRulesLimit]
	}
	return s
}
