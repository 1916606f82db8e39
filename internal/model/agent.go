package model

import "time"

// Agent is a capture agent as reported by the backend.
type Agent struct {
	UUID          string
	Name          string
	CreatedAt     time.Time
	LogsCollected int64
}
