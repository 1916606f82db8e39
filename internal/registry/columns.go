package registry

import (
	"github.com/coffersTech/nanoaudit/internal/engine"
)

// Columns describes the roster table.
func Columns() []engine.Column[Agent] {
	return []engine.Column[Agent]{
		engine.FuncColumn[Agent]{
			ColID: "id", ColTitle: "Agent", NoHide: true,
			KeyFunc: func(a Agent) engine.SortKey { return engine.StringKey(a.ID) },
		},
		engine.FuncColumn[Agent]{
			ColID: "name", ColTitle: "Name",
			KeyFunc: func(a Agent) engine.SortKey { return engine.StringKey(a.Name) },
		},
		engine.FuncColumn[Agent]{
			ColID: "observed", ColTitle: "Records", ColKind: engine.KindNumber,
			KeyFunc: func(a Agent) engine.SortKey { return engine.NumberKey(float64(a.Observed)) },
		},
		engine.FuncColumn[Agent]{
			ColID: "findings", ColTitle: "Findings", ColKind: engine.KindNumber,
			KeyFunc: func(a Agent) engine.SortKey { return engine.NumberKey(float64(a.Findings)) },
		},
		engine.FuncColumn[Agent]{
			ColID: "logsCollected", ColTitle: "Collected", ColKind: engine.KindNumber,
			KeyFunc: func(a Agent) engine.SortKey { return engine.NumberKey(float64(a.LogsCollected)) },
		},
		engine.FuncColumn[Agent]{
			ColID: "lastSeen", ColTitle: "Last seen", ColKind: engine.KindTime,
			KeyFunc: func(a Agent) engine.SortKey { return engine.NumberKey(float64(a.LastSeenAt)) },
			RenderFunc: func(a Agent) engine.DisplayValue {
				if a.LastSeenAt == 0 {
					return engine.Plain("-")
				}
				return engine.Plain(engine.FormatTimestamp(a.LastSeenAt))
			},
		},
	}
}
